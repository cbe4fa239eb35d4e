package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// SyncStore is the repository slice the calendar sync needs.
type SyncStore interface {
	GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CalendarByRole(ctx context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error)
	UpdateSchedule(ctx context.Context, s *domain.Schedule) error
}

// CalendarSync pushes approved schedules to the user's target calendar
// as all-day events and records the created event on the schedule.
type CalendarSync struct {
	store    SyncStore
	gateways GatewayFactory
	notifier Notifier
	log      *zap.Logger
}

func NewCalendarSync(st SyncStore, gateways GatewayFactory, notifier Notifier, log *zap.Logger) *CalendarSync {
	return &CalendarSync{store: st, gateways: gateways, notifier: notifier, log: log}
}

// SyncSchedule creates the target-calendar event for one approved
// schedule. Non-approved schedules are ignored so a retried or
// double-enqueued job stays harmless.
func (c *CalendarSync) SyncSchedule(ctx context.Context, scheduleID int64) error {
	s, err := c.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("load schedule %d: %w", scheduleID, err)
	}
	if s.Status != domain.StatusApproved {
		c.log.Debug("sync skipped, schedule not approved",
			zap.Int64("schedule_id", s.ID), zap.String("status", s.Status.String()))
		return nil
	}

	user, err := c.store.GetUser(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", s.UserID, err)
	}

	target, err := c.store.CalendarByRole(ctx, user.ID, domain.RoleTarget)
	if err != nil {
		return fmt.Errorf("target calendar: %w", err)
	}

	gw, err := c.gateways(ctx, user)
	if err != nil {
		return err
	}

	eventID, err := gw.CreateEvent(ctx, target.GoogleID, s.Title, eventDescription(s), s.ScheduledDate, s.ScheduledDate)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	if err := s.Sync(eventID, time.Now()); err != nil {
		return err
	}
	if err := c.store.UpdateSchedule(ctx, s); err != nil {
		return fmt.Errorf("persist sync: %w", err)
	}

	c.log.Info("schedule synced",
		zap.Int64("schedule_id", s.ID),
		zap.String("event_id", eventID),
		zap.String("calendar", target.GoogleID))

	if user.TelegramLinked() {
		if err := c.notifier.NotifyOutcome(ctx, user, s); err != nil {
			c.log.Error("sync notice failed", zap.Int64("schedule_id", s.ID), zap.Error(err))
		}
	}
	return nil
}

// eventDescription renders the created event's body: the court date and
// the case metadata when present.
func eventDescription(s *domain.Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "원본 변론일: %s", domain.KoreanDateWeekday(s.OriginalDate))
	if s.CaseNumber != "" {
		fmt.Fprintf(&b, "\n사건번호: %s", s.CaseNumber)
	}
	if s.CaseName != "" {
		fmt.Fprintf(&b, "\n사건명: %s", s.CaseName)
	}
	return b.String()
}

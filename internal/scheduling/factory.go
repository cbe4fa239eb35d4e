// Package scheduling turns filtered calendar events into pending
// writing schedules: lead-time date math, weekend adjustment, weekly
// capacity enforcement and case-metadata extraction.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
)

// capacitySearchLimit bounds the move-to-next-week search. When four
// consecutive weeks are full the last candidate is accepted anyway:
// capped drift beats dropping the event.
const capacitySearchLimit = 4

// ErrNoTargetCalendar is a per-user configuration error: schedules
// cannot be created without a target calendar to bind them to.
var ErrNoTargetCalendar = errors.New("no target calendar configured")

// Store is the slice of the repository the factory needs.
type Store interface {
	HasScheduleForSource(ctx context.Context, userID int64, sourceEventID string) (bool, error)
	CountActiveInWeek(ctx context.Context, userID int64, weekStart, weekEnd time.Time) (int, error)
	CalendarByRole(ctx context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error)
	InsertSchedule(ctx context.Context, s *domain.Schedule) error
}

// SkipReason explains why an event produced no schedule without being
// an error.
type SkipReason string

const SkipDuplicate SkipReason = "duplicate"

// Result is the outcome for a single event: exactly one of Schedule,
// Skipped or Err is meaningful.
type Result struct {
	Schedule *domain.Schedule
	Skipped  SkipReason
	Err      error
}

// SkippedEvent and FailedEvent carry per-event outcomes in a batch.
type SkippedEvent struct {
	EventID string
	Reason  SkipReason
}

type FailedEvent struct {
	EventID string
	Err     error
}

// BatchResult partitions a batch run for the caller.
type BatchResult struct {
	Created []*domain.Schedule
	Skipped []SkippedEvent
	Failed  []FailedEvent
}

// Factory creates writing schedules from external events.
type Factory struct {
	store Store
	log   *zap.Logger
}

func NewFactory(store Store, log *zap.Logger) *Factory {
	return &Factory{store: store, log: log}
}

// Create applies the full decision for one event: duplicate guard,
// target-date computation, capacity placement, metadata extraction,
// and persistence in pending state on the user's target calendar.
func (f *Factory) Create(ctx context.Context, user *domain.User, policy domain.Policy, event domain.ExternalEvent) Result {
	if err := policy.Validate(); err != nil {
		return Result{Err: err}
	}

	// Idempotency guard against re-scanning the same window.
	dup, err := f.store.HasScheduleForSource(ctx, user.ID, event.ID)
	if err != nil {
		return Result{Err: fmt.Errorf("duplicate check: %w", err)}
	}
	if dup {
		return Result{Skipped: SkipDuplicate}
	}

	target, err := f.placeDate(ctx, user.ID, policy, event.StartDate)
	if err != nil {
		return Result{Err: err}
	}

	caseNumber := domain.ExtractCaseNumber(event.Summary, event.Description)
	caseName := domain.ExtractCaseName(event.Summary)
	title := domain.FormatTitle(caseNumber, caseName)

	cal, err := f.store.CalendarByRole(ctx, user.ID, domain.RoleTarget)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrNoTargetCalendar, err)}
	}

	s, err := domain.NewSchedule(user.ID, cal.ID, title, caseNumber, caseName,
		domain.DateOnly(event.StartDate), target, event.ID)
	if err != nil {
		return Result{Err: err}
	}

	if err := f.store.InsertSchedule(ctx, s); err != nil {
		return Result{Err: fmt.Errorf("insert schedule: %w", err)}
	}

	f.log.Info("schedule created",
		zap.Int64("user_id", user.ID),
		zap.Int64("schedule_id", s.ID),
		zap.String("event_id", event.ID),
		zap.String("scheduled_date", target.Format("2006-01-02")))
	return Result{Schedule: s}
}

// placeDate computes the writing deadline: original date minus lead
// days, weekend-adjusted, then moved forward week by week while the
// candidate week is at capacity (bounded search).
func (f *Factory) placeDate(ctx context.Context, userID int64, policy domain.Policy, originalDate time.Time) (time.Time, error) {
	candidate := domain.DateOnly(originalDate).AddDate(0, 0, -policy.LeadDays)
	if policy.ExcludeWeekends {
		candidate = domain.AdjustWeekend(candidate)
	}

	target := candidate
	for i := 0; i < capacitySearchLimit; i++ {
		count, err := f.store.CountActiveInWeek(ctx, userID, domain.WeekStart(target), domain.WeekEnd(target))
		if err != nil {
			return target, fmt.Errorf("capacity check: %w", err)
		}
		if count < policy.MaxPerWeek {
			break
		}
		// Week is full: restart at the Monday of the following week.
		target = domain.WeekStart(target).AddDate(0, 0, 7)
		if policy.ExcludeWeekends {
			target = domain.AdjustWeekend(target)
		}
	}
	return target, nil
}

// CreateBatch applies Create to each event independently; one event's
// failure or duplicate-skip never aborts the batch.
func (f *Factory) CreateBatch(ctx context.Context, user *domain.User, policy domain.Policy, events []domain.ExternalEvent) BatchResult {
	var res BatchResult
	for _, ev := range events {
		r := f.Create(ctx, user, policy, ev)
		switch {
		case r.Schedule != nil:
			res.Created = append(res.Created, r.Schedule)
		case r.Skipped != "":
			res.Skipped = append(res.Skipped, SkippedEvent{EventID: ev.ID, Reason: r.Skipped})
		default:
			f.log.Warn("schedule creation failed",
				zap.Int64("user_id", user.ID), zap.String("event_id", ev.ID), zap.Error(r.Err))
			res.Failed = append(res.Failed, FailedEvent{EventID: ev.ID, Err: r.Err})
		}
	}
	return res
}

// Package jobs holds the periodic background work of the scheduling
// core: scanning the source calendar for court dates, reconciling
// externally deleted events, and pushing approved schedules to the
// target calendar.
package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/gcal"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/scheduling"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/store"
)

const maxScanResults = 100

// GatewayFactory builds a calendar gateway bound to one user's
// credentials.
type GatewayFactory func(ctx context.Context, user *domain.User) (gcal.Gateway, error)

// Notifier is the messaging surface the jobs drive. NotifyOutcome
// picks its wording from the schedule's current status.
type Notifier interface {
	NotifyNext(ctx context.Context, user *domain.User) error
	NotifyOutcome(ctx context.Context, user *domain.User, s *domain.Schedule) error
}

// ScanStore is the repository slice the scanner reads.
type ScanStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CalendarByRole(ctx context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error)
	ActiveKeywords(ctx context.Context, userID int64) ([]string, error)
	SourceEventIDs(ctx context.Context, userID int64) (map[string]struct{}, error)
	GetPolicy(ctx context.Context, userID int64) (domain.Policy, error)
}

// Scanner walks every user's source calendar over a forward-looking
// window and turns matching court dates into pending schedules.
type Scanner struct {
	store    ScanStore
	factory  *scheduling.Factory
	gateways GatewayFactory
	notifier Notifier
	log      *zap.Logger
	window   time.Duration
}

func NewScanner(st ScanStore, factory *scheduling.Factory, gateways GatewayFactory, notifier Notifier, log *zap.Logger, windowWeeks int) *Scanner {
	if windowWeeks <= 0 {
		windowWeeks = 4
	}
	return &Scanner{
		store:    st,
		factory:  factory,
		gateways: gateways,
		notifier: notifier,
		log:      log,
		window:   time.Duration(windowWeeks) * 7 * 24 * time.Hour,
	}
}

// Run scans all users. A failing user never aborts the others.
func (s *Scanner) Run(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if err := s.ScanUser(ctx, &users[i]); err != nil {
			s.log.Error("scan failed", zap.Int64("user_id", users[i].ID), zap.Error(err))
		}
	}
	return nil
}

// ScanUser runs one scan cycle for a single user: list events in the
// window, filter by keywords, drop already-known source events, create
// schedules in batch, then kick off sequential notification if
// anything new appeared.
func (s *Scanner) ScanUser(ctx context.Context, user *domain.User) error {
	if !user.GoogleLinked() {
		return nil
	}

	source, err := s.store.CalendarByRole(ctx, user.ID, domain.RoleSource)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug("no source calendar, skipping scan", zap.Int64("user_id", user.ID))
			return nil
		}
		return err
	}

	gw, err := s.gateways(ctx, user)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	events, err := gw.ListEvents(ctx, source.GoogleID, now, now.Add(s.window), maxScanResults)
	if err != nil {
		return err
	}

	keywords, err := s.store.ActiveKeywords(ctx, user.ID)
	if err != nil {
		return err
	}
	matched := domain.MatchEvents(events, keywords)

	known, err := s.store.SourceEventIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	fresh := matched[:0:0]
	for _, ev := range matched {
		if _, ok := known[ev.ID]; !ok {
			fresh = append(fresh, ev)
		}
	}

	s.log.Info("scan window evaluated",
		zap.Int64("user_id", user.ID),
		zap.Int("events", len(events)),
		zap.Int("matched", len(matched)),
		zap.Int("new", len(fresh)))

	if len(fresh) == 0 {
		return nil
	}

	policy, err := s.store.GetPolicy(ctx, user.ID)
	if err != nil {
		return err
	}

	res := s.factory.CreateBatch(ctx, user, policy, fresh)
	s.log.Info("scan complete",
		zap.Int64("user_id", user.ID),
		zap.Int("created", len(res.Created)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)))

	// Start the sequential approval drain: one message, the handler's
	// resolution triggers the next.
	if len(res.Created) > 0 && user.TelegramLinked() {
		if err := s.notifier.NotifyNext(ctx, user); err != nil {
			s.log.Error("notify next failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

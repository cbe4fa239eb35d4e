package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/domain"
	"github.com/Chris-Chai-Minjae/legal-scheduler/internal/store"
)

// ReconcileStore is the repository slice the reconciler needs.
type ReconcileStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListReconcilable(ctx context.Context, userID int64) ([]domain.Schedule, error)
	CalendarByRole(ctx context.Context, userID int64, role domain.CalendarRole) (*domain.Calendar, error)
	UpdateSchedule(ctx context.Context, s *domain.Schedule) error
}

// Summary counts one reconciliation run for a user.
type Summary struct {
	Checked   int
	Cancelled int
	Errors    int
}

// Reconciler keeps internal schedules consistent with deletions made
// directly on the external calendar: when a source event disappears,
// the derived schedule is cancelled and the user is told.
type Reconciler struct {
	store    ReconcileStore
	gateways GatewayFactory
	notifier Notifier
	log      *zap.Logger
}

func NewReconciler(st ReconcileStore, gateways GatewayFactory, notifier Notifier, log *zap.Logger) *Reconciler {
	return &Reconciler{store: st, gateways: gateways, notifier: notifier, log: log}
}

// Run reconciles all users; per-user failures are isolated.
func (r *Reconciler) Run(ctx context.Context) error {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		u := &users[i]
		if !u.GoogleLinked() {
			continue
		}
		sum, err := r.ReconcileUser(ctx, u)
		if err != nil {
			r.log.Error("reconcile failed", zap.Int64("user_id", u.ID), zap.Error(err))
			continue
		}
		r.log.Info("reconcile complete",
			zap.Int64("user_id", u.ID),
			zap.Int("checked", sum.Checked),
			zap.Int("cancelled", sum.Cancelled),
			zap.Int("errors", sum.Errors))
	}
	return nil
}

// ReconcileUser verifies every active schedule's source event still
// exists upstream. Per-schedule failures are counted, not fatal.
func (r *Reconciler) ReconcileUser(ctx context.Context, user *domain.User) (Summary, error) {
	var sum Summary

	schedules, err := r.store.ListReconcilable(ctx, user.ID)
	if err != nil {
		return sum, err
	}
	if len(schedules) == 0 {
		return sum, nil
	}

	source, err := r.store.CalendarByRole(ctx, user.ID, domain.RoleSource)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return sum, errors.New("schedules reference source events but no source calendar is linked")
		}
		return sum, err
	}

	gw, err := r.gateways(ctx, user)
	if err != nil {
		return sum, err
	}

	for i := range schedules {
		s := &schedules[i]
		sum.Checked++

		exists, err := gw.EventExists(ctx, source.GoogleID, s.SourceEventID)
		if err != nil {
			r.log.Error("existence check failed",
				zap.Int64("schedule_id", s.ID), zap.String("event_id", s.SourceEventID), zap.Error(err))
			sum.Errors++
			continue
		}
		if exists {
			continue
		}

		if err := s.Cancel(time.Now()); err != nil {
			// Raced with another transition; nothing to do.
			continue
		}
		if err := r.store.UpdateSchedule(ctx, s); err != nil {
			r.log.Error("cancel persist failed", zap.Int64("schedule_id", s.ID), zap.Error(err))
			sum.Errors++
			continue
		}
		sum.Cancelled++
		r.log.Info("schedule cancelled, source event deleted upstream",
			zap.Int64("schedule_id", s.ID), zap.String("event_id", s.SourceEventID))

		if user.TelegramLinked() {
			if err := r.notifier.NotifyOutcome(ctx, user, s); err != nil {
				r.log.Error("cancellation notice failed", zap.Int64("schedule_id", s.ID), zap.Error(err))
			}
		}
	}
	return sum, nil
}

// Package scheduler runs the recurring jobs on cron expressions in the
// configured timezone.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps a cron runner with context-aware job functions.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New creates a scheduler evaluating cron expressions in loc.
func New(log *zap.Logger, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log,
	}
}

// Add registers a job under a cron spec. The job receives ctx so a
// shutdown cancels in-flight work.
func (s *Scheduler) Add(ctx context.Context, spec, name string, run func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info("cron job starting", zap.String("job", name))
		if err := run(ctx); err != nil {
			s.log.Error("cron job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Info("cron job finished", zap.String("job", name))
	})
	return err
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Package queue runs background work units with at-least-once
// semantics and an explicit retry policy: bounded attempts, linear
// backoff, transient errors only. Every job a handler or cron trigger
// dispatches goes through here so no request path blocks on gateway I/O.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 5 * time.Second
)

// Job is one unit of background work. Run must be idempotent or
// tolerate re-execution; duplicate suppression lives in the factory.
type Job struct {
	ID          uuid.UUID
	Name        string
	MaxAttempts int
	Backoff     time.Duration // linear: attempt n waits n*Backoff
	Run         func(ctx context.Context) error
}

// Queue dispatches jobs onto a fixed worker pool.
type Queue struct {
	jobs    chan Job
	log     *zap.Logger
	workers int
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a queue with the given worker count and buffer size.
func New(log *zap.Logger, workers, buffer int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobs:    make(chan Job, buffer),
		log:     log,
		workers: workers,
	}
}

// Start launches the worker pool. Workers drain remaining jobs after
// ctx is cancelled only if they were already dequeued.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for j := range q.jobs {
				q.execute(ctx, j)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue dispatches a job with the default retry policy. Returns
// false when the queue is stopped or full; the caller's cron tick or
// webhook retry will re-dispatch.
func (q *Queue) Enqueue(name string, run func(ctx context.Context) error) bool {
	return q.EnqueueJob(Job{Name: name, Run: run})
}

// EnqueueJob dispatches a job, filling in policy defaults.
func (q *Queue) EnqueueJob(j Job) bool {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.MaxAttempts <= 0 {
		j.MaxAttempts = defaultMaxAttempts
	}
	if j.Backoff <= 0 {
		j.Backoff = defaultBackoff
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.log.Warn("queue stopped, dropping job", zap.String("job", j.Name))
		return false
	}
	select {
	case q.jobs <- j:
		return true
	default:
		q.log.Warn("queue full, dropping job", zap.String("job", j.Name), zap.String("job_id", j.ID.String()))
		return false
	}
}

func (q *Queue) execute(ctx context.Context, j Job) {
	for attempt := 1; ; attempt++ {
		err := j.Run(ctx)
		if err == nil {
			if attempt > 1 {
				q.log.Info("job succeeded after retry",
					zap.String("job", j.Name), zap.String("job_id", j.ID.String()), zap.Int("attempt", attempt))
			}
			return
		}

		if !IsTransient(err) || attempt >= j.MaxAttempts {
			q.log.Error("job failed",
				zap.String("job", j.Name), zap.String("job_id", j.ID.String()),
				zap.Int("attempt", attempt), zap.Error(err))
			return
		}

		delay := time.Duration(attempt) * j.Backoff
		q.log.Warn("job retrying",
			zap.String("job", j.Name), zap.String("job_id", j.ID.String()),
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

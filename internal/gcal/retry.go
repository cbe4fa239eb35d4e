package gcal

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
)

const (
	maxRetries  = 3
	backoffStep = 2 * time.Second
)

// linearBackOff waits step, 2*step, 3*step... between attempts, up to
// maxRetries retries, then stops.
type linearBackOff struct {
	step    time.Duration
	limit   int
	attempt int
}

func newLinearBackOff(step time.Duration, limit int) *linearBackOff {
	return &linearBackOff{step: step, limit: limit}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt > b.limit {
		return backoff.Stop
	}
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// isTransient classifies calendar API failures. Timeouts and 5xx/429
// responses are worth retrying; auth and other 4xx errors are not.
func isTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 500 || gerr.Code == 429
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}

// withRetry runs op with bounded linear backoff on transient errors.
func withRetry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(newLinearBackOff(backoffStep, maxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

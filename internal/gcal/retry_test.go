package gcal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestLinearBackOff(t *testing.T) {
	bo := newLinearBackOff(time.Second, 3)
	assert.Equal(t, 1*time.Second, bo.NextBackOff())
	assert.Equal(t, 2*time.Second, bo.NextBackOff())
	assert.Equal(t, 3*time.Second, bo.NextBackOff())
	assert.Equal(t, backoff.Stop, bo.NextBackOff())

	bo.Reset()
	assert.Equal(t, 1*time.Second, bo.NextBackOff())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&googleapi.Error{Code: 500}))
	assert.True(t, isTransient(&googleapi.Error{Code: 503}))
	assert.True(t, isTransient(&googleapi.Error{Code: 429}))
	assert.False(t, isTransient(&googleapi.Error{Code: 404}))
	assert.False(t, isTransient(&googleapi.Error{Code: 401}))
	assert.False(t, isTransient(&googleapi.Error{Code: 403}))
	assert.False(t, isTransient(errors.New("boom")))
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return &googleapi.Error{Code: 403}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_TransientErrorRetriedThenSucceeds(t *testing.T) {
	// Cancel quickly rather than sit through real backoff in tests is
	// not needed here: the op succeeds on the second attempt.
	calls := 0
	start := time.Now()
	err := withRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &googleapi.Error{Code: 500}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), backoffStep)
}

func TestWithRetry_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := withRetry(ctx, func() error {
		calls++
		return &googleapi.Error{Code: 500}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

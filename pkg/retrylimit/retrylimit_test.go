package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetry_EventuallySucceeds(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(502)
		}
		return nil
	}, nil, fastConfig(5))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_FatalStops(t *testing.T) {
	boom := errors.New("bad request")
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return Fatal(boom)
	}, nil, fastConfig(5))
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_MaxAttempts(t *testing.T) {
	last := statusErr(500)
	err := WithRetryConfig(context.Background(), func() error { return last }, nil, fastConfig(3))
	assert.ErrorIs(t, err, ErrMaxAttempts)
	assert.ErrorIs(t, err, last)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	err := WithRetryConfig(ctx, func() error {
		calls++
		cancel()
		return errors.New("flaky")
	}, nil, cfg)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestClassifier(t *testing.T) {
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", statusErr(429))))
	assert.True(t, IsServerError(statusErr(503)))
	assert.False(t, DefaultClassifier(statusErr(404)))
	assert.False(t, DefaultClassifier(errors.New("plain")))
}

func TestAdaptiveLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 2, 0.5)
	now := time.Unix(0, 0)
	lim.now = func() time.Time { return now }

	now = now.Add(time.Minute)
	lim.Success()
	assert.Equal(t, 6.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 3.0, lim.CurrentLimit())

	lim.Success()
	assert.Equal(t, 3.0, lim.CurrentLimit(), "no increase right after a failure")

	for range 5 {
		lim.RateLimited()
	}
	assert.Equal(t, 1.0, lim.CurrentLimit())

	now = now.Add(time.Minute)
	for range 10 {
		lim.Success()
	}
	assert.Equal(t, 8.0, lim.CurrentLimit())
}

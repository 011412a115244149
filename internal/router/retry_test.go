package router_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/modelgate/modelgate/internal/domain"
	"github.com/modelgate/modelgate/internal/router"
)

func TestBackoffDelaySequence(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 3, InitialDelayMs: 1000, MaxDelayMs: 10000, BackoffMultiplier: 2}

	assert.Equal(t, 1000*time.Millisecond, router.BackoffDelay(cfg, 1))
	assert.Equal(t, 2000*time.Millisecond, router.BackoffDelay(cfg, 2))
	assert.Equal(t, 4000*time.Millisecond, router.BackoffDelay(cfg, 3))
	assert.Equal(t, 8000*time.Millisecond, router.BackoffDelay(cfg, 4))
	// Clamped to the max.
	assert.Equal(t, 10000*time.Millisecond, router.BackoffDelay(cfg, 5))
	assert.Equal(t, 10000*time.Millisecond, router.BackoffDelay(cfg, 10))
}

func TestWithRetryAttemptCount(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 3, InitialDelayMs: 1, MaxDelayMs: 2, BackoffMultiplier: 2}

	calls := 0
	err := router.WithRetry(context.Background(), cfg, nil, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("attempt %d failed", calls)
	})
	assert.Error(t, err)
	assert.Equal(t, 4, calls) // initial attempt + 3 retries
	assert.Contains(t, err.Error(), "attempt 4")
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 3, InitialDelayMs: 1, MaxDelayMs: 2, BackoffMultiplier: 2}

	calls := 0
	err := router.WithRetry(context.Background(), cfg, nil, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryPermanentStopsImmediately(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 3, InitialDelayMs: 1, MaxDelayMs: 2, BackoffMultiplier: 2}

	sentinel := errors.New("fatal")
	calls := 0
	err := router.WithRetry(context.Background(), cfg, nil, func(ctx context.Context) error {
		calls++
		return router.Permanent(sentinel)
	})
	assert.Equal(t, 1, calls)
	// The permanent marker is stripped before the error is returned.
	assert.True(t, errors.Is(err, sentinel))
}

func TestWithRetryObserver(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 2, InitialDelayMs: 1, MaxDelayMs: 4, BackoffMultiplier: 2}

	var observed []int
	observe := func(attempt int, delay time.Duration, err error) {
		observed = append(observed, attempt)
	}
	_ = router.WithRetry(context.Background(), cfg, observe, func(ctx context.Context) error {
		return errors.New("nope")
	})
	// The observer fires before each retry, not after the final failure.
	assert.Equal(t, []int{1, 2}, observed)
}

func TestWithRetryContextCancel(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 5, InitialDelayMs: 10000, MaxDelayMs: 10000, BackoffMultiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := router.WithRetry(ctx, cfg, nil, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestWithRetryAlreadyCancelled(t *testing.T) {
	cfg := domain.RetryConfig{MaxRetries: 3, InitialDelayMs: 1, MaxDelayMs: 2, BackoffMultiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := router.WithRetry(ctx, cfg, nil, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	// A cancelled context never invokes the operation at all.
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, router.Permanent(nil))
}

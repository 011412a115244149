package router

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/modelgate/modelgate/internal/domain"
)

// RetryObserver is invoked before each retry with the attempt number
// that just failed, the delay about to be slept, and the error.
type RetryObserver func(attempt int, delay time.Duration, err error)

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so WithRetry stops immediately instead of
// retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// BackoffDelay returns the sleep before the retry following the given
// attempt (1-based): initialDelay * multiplier^(attempt-1), clamped to
// maxDelay.
func BackoffDelay(cfg domain.RetryConfig, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ms := float64(cfg.InitialDelayMs) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if cfg.MaxDelayMs > 0 && ms > float64(cfg.MaxDelayMs) {
		ms = float64(cfg.MaxDelayMs)
	}
	return time.Duration(ms) * time.Millisecond
}

// WithRetry runs op up to cfg.MaxRetries+1 times, sleeping an
// exponential backoff between attempts. A Permanent error or a
// cancelled context aborts immediately. The last error is returned,
// unwrapped from its permanent marker when present.
func WithRetry(ctx context.Context, cfg domain.RetryConfig, observe RetryObserver, op func(ctx context.Context) error) error {
	attempts := cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == attempts {
			break
		}

		delay := BackoffDelay(cfg, attempt)
		if observe != nil {
			observe(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

package utils

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *slog.Logger

	// ShouldRetry decides whether a failure is worth another attempt.
	// A nil predicate retries every error.
	ShouldRetry func(error) bool
}

// Do executes fn with exponential back-off retry logic. The delay doubles per
// attempt and carries a 0.5-1.5x jitter so repeated failures do not hit the
// remote host in lockstep.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if r.ShouldRetry != nil && !r.ShouldRetry(lastErr) {
			return lastErr
		}

		if attempt < r.MaxAttempts {
			wait := jitter(delay)
			r.Logger.Warn("retrying",
				"op", operationName,
				"attempt", attempt,
				"max", r.MaxAttempts,
				"wait", wait,
				"err", lastErr)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(float64(d) * (0.5 + rand.Float64()))
}

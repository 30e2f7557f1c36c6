// Package retry runs an operation with a fixed attempt budget and
// exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Config controls the retry behaviour.
type Config struct {
	// MaxAttempts is the total number of attempts (including the first).
	// Zero or negative values are treated as 1.
	MaxAttempts int
	// BaseDelay scales the wait after a failed attempt n (1-based):
	// BaseDelay * 2^n.
	BaseDelay time.Duration
	// MaxDelay caps the per-attempt wait. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultConfig is 3 attempts waiting 1s then 2s.
var DefaultConfig = Config{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
}

// Delay returns the wait after the given failed attempt.
func (c Config) Delay(attempt int) time.Duration {
	d := c.BaseDelay << attempt
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds or the attempt budget is spent. The error from
// the last attempt is returned. Cancelling ctx stops waiting between attempts.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(lastErr, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxAttempts {
			delay := cfg.Delay(attempt)
			slog.Debug("retry: attempt failed, retrying",
				"attempt", attempt, "max", cfg.MaxAttempts,
				"err", lastErr, "delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}
	}

	return lastErr
}

package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrMaxRetries is returned, wrapping the last failure, once every attempt has failed.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryOptions tunes WithRetry. Zero fields take the defaults below.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 50 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 2 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2
	}
	return o
}

// next returns the wait after d, capped at MaxDelay.
func (o RetryOptions) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * o.Multiplier)
	return min(d, o.MaxDelay)
}

// WithRetry runs op until it succeeds, fails with an error IsRetryable
// rejects, runs out of attempts, or ctx ends.
func WithRetry(ctx context.Context, op func() error, opts RetryOptions) error {
	opts = opts.withDefaults()

	wait := opts.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		slog.Debug("Store busy, backing off", "attempt", attempt, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = opts.next(wait)
	}
}

package engine

import (
	"context"
	"time"

	"github.com/rustyeddy/autopilot/broker"
)

// RetryPolicy bounds how many times a transient broker failure is retried
// and how long to wait between attempts: BaseDelay * 2^attempt, capped at
// MaxDelay. Non-transient errors are never retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Delay returns the backoff before retry number attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		return p.BaseDelay
	}
	// 2^30 seconds is already far past any sane MaxDelay.
	if attempt > 30 {
		return p.MaxDelay
	}

	backoff := p.BaseDelay * time.Duration(1<<attempt)
	if backoff > p.MaxDelay {
		return p.MaxDelay
	}
	return backoff
}

// Do runs fn, retrying while it returns a transient error and attempts
// remain. The last error is returned when retries are exhausted; a
// cancelled context cuts the wait short.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !broker.Transient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(i)):
		}
	}
	return err
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/autopilot/broker"
)

func TestRetryPolicy_Delay(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first", 0, time.Second},
		{"second", 1, 2 * time.Second},
		{"third", 2, 4 * time.Second},
		{"capped", 5, 10 * time.Second},
		{"huge attempt capped", 40, 10 * time.Second},
		{"negative", -1, time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.Delay(tt.attempt))
		})
	}
}

func TestRetryPolicy_Do(t *testing.T) {
	t.Parallel()

	fast := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	t.Run("succeeds first try", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := fast.Do(context.Background(), func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := fast.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &broker.TransientError{Op: "submit order", Err: errors.New("reset")}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := fast.Do(context.Background(), func() error {
			calls++
			return &broker.TransientError{Op: "submit order", Err: errors.New("reset")}
		})
		require.Error(t, err)
		assert.True(t, broker.Transient(err))
		assert.Equal(t, 3, calls)
	})

	t.Run("hard errors are not retried", func(t *testing.T) {
		t.Parallel()

		calls := 0
		hard := errors.New("unknown symbol")
		err := fast.Do(context.Background(), func() error {
			calls++
			return hard
		})
		assert.ErrorIs(t, err, hard)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context cuts the wait short", func(t *testing.T) {
		t.Parallel()

		slow := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		done := make(chan error, 1)
		go func() {
			done <- slow.Do(ctx, func() error {
				calls++
				return &broker.TransientError{Op: "submit order"}
			})
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, 1, calls)
		case <-time.After(time.Second):
			t.Fatal("Do did not return on cancellation")
		}
	})
}

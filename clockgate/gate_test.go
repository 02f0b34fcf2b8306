package clockgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/autopilot/broker"
)

type fakeSource struct {
	clk broker.Clock
	err error
}

func (f *fakeSource) GetClock(ctx context.Context) (broker.Clock, error) {
	return f.clk, f.err
}

func TestGate_Open(t *testing.T) {
	t.Parallel()

	nextOpen := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	g := New(&fakeSource{clk: broker.Clock{IsOpen: true, NextOpen: nextOpen}}, nil)

	now := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	open, next := g.Status(context.Background(), now)
	assert.True(t, open)
	assert.Equal(t, nextOpen, next)
	assert.True(t, g.IsOpen(context.Background(), now))
}

func TestGate_Closed(t *testing.T) {
	t.Parallel()

	nextOpen := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	g := New(&fakeSource{clk: broker.Clock{IsOpen: false, NextOpen: nextOpen}}, nil)

	now := time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)
	assert.False(t, g.IsOpen(context.Background(), now))
	assert.Equal(t, nextOpen, g.NextOpen(context.Background(), now))
}

func TestGate_FailsClosedOnCalendarError(t *testing.T) {
	t.Parallel()

	g := New(&fakeSource{err: errors.New("connection refused")}, nil)

	now := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	open, next := g.Status(context.Background(), now)
	assert.False(t, open, "unreachable calendar must read as closed")
	assert.Equal(t, now.Add(DefaultProbe), next, "re-probe soon rather than sleeping long")
}

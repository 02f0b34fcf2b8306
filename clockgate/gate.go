// Package clockgate answers "is the market open" from the broker's calendar
// and gates the control loop on it. When the calendar cannot be reached the
// gate fails closed: trading on a stale calendar is worse than waiting.
package clockgate

import (
	"context"
	"log/slog"
	"time"

	"github.com/rustyeddy/autopilot/broker"
)

// Source is the calendar collaborator, usually the broker itself.
type Source interface {
	GetClock(ctx context.Context) (broker.Clock, error)
}

// DefaultProbe is how soon the gate re-checks after a calendar failure.
const DefaultProbe = time.Minute

type Gate struct {
	src   Source
	log   *slog.Logger
	probe time.Duration
}

func New(src Source, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{src: src, log: log, probe: DefaultProbe}
}

// Status reports whether the market is open and, if closed, when it next
// opens. A calendar error reads as closed with a short re-probe time.
func (g *Gate) Status(ctx context.Context, now time.Time) (bool, time.Time) {
	clk, err := g.src.GetClock(ctx)
	if err != nil {
		g.log.Warn("calendar unreachable, failing closed",
			slog.Any("error", err),
			slog.Time("retry_at", now.Add(g.probe)))
		return false, now.Add(g.probe)
	}
	return clk.IsOpen, clk.NextOpen
}

// IsOpen reports whether the market is open right now, failing closed.
func (g *Gate) IsOpen(ctx context.Context, now time.Time) bool {
	open, _ := g.Status(ctx, now)
	return open
}

// NextOpen reports when the market next opens. On calendar failure it
// returns a short probe interval from now so the caller re-checks soon.
func (g *Gate) NextOpen(ctx context.Context, now time.Time) time.Time {
	_, next := g.Status(ctx, now)
	return next
}

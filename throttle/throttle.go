// Package throttle bounds how often a single symbol may turn signals into
// orders, and raises the bar on signal strength as a symbol trades more
// often within the window.
package throttle

import (
	"time"

	"github.com/rustyeddy/autopilot/signal"
)

type Config struct {
	// MaxOrdersPerWindow caps emissions per symbol per rolling window.
	MaxOrdersPerWindow int

	// Window is the rolling window length.
	Window time.Duration

	// BaseThreshold is the minimum strength a signal needs with a quiet
	// window. TightenStep is added per order already emitted this window,
	// so borderline signals stop firing as trade frequency rises.
	BaseThreshold float64
	TightenStep   float64
}

type symbolState struct {
	lastOrder      time.Time
	hasLast        bool
	ordersInWindow int
	windowStart    time.Time
}

// Throttler keeps one entry per symbol, created on first sight and never
// destroyed. Single-goroutine use only, same as the ledger.
type Throttler struct {
	cfg    Config
	states map[string]*symbolState
}

func New(cfg Config) *Throttler {
	return &Throttler{
		cfg:    cfg,
		states: make(map[string]*symbolState),
	}
}

// ShouldEmit decides whether this signal may proceed downstream. It mutates
// the symbol's counters only when it returns true; a suppressed signal is
// dropped, not queued. Window rollover is checked lazily on every call.
func (t *Throttler) ShouldEmit(sig signal.TradeSignal, now time.Time) bool {
	st, ok := t.states[sig.Symbol]
	if !ok {
		st = &symbolState{windowStart: now}
		t.states[sig.Symbol] = st
	}

	if now.Sub(st.windowStart) >= t.cfg.Window {
		st.ordersInWindow = 0
		st.windowStart = now
	}

	if st.ordersInWindow >= t.cfg.MaxOrdersPerWindow {
		return false
	}

	threshold := t.cfg.BaseThreshold + t.cfg.TightenStep*float64(st.ordersInWindow)
	if sig.Strength < threshold {
		return false
	}

	st.ordersInWindow++
	st.lastOrder = now
	st.hasLast = true
	return true
}

// LastOrder returns when the symbol last emitted, if it ever has.
func (t *Throttler) LastOrder(symbol string) (time.Time, bool) {
	st, ok := t.states[symbol]
	if !ok || !st.hasLast {
		return time.Time{}, false
	}
	return st.lastOrder, true
}

package signal

import (
	"context"
	"time"
)

// Noop never signals. Useful for dry runs where only the control loop and
// ledger bookkeeping should exercise.
type Noop struct{}

func (Noop) GetSignals(ctx context.Context, symbols []string, now time.Time) ([]TradeSignal, error) {
	_ = ctx
	_ = symbols
	_ = now
	return nil, nil
}

func init() {
	Register("noop", Noop{})
	Register("none", Noop{})
}

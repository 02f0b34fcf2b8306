// Package journal records every engine decision together with the ledger
// state at decision time, so a day's trading can be reconstructed after the
// fact. The sqlite journal doubles as the ledger's durable store.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Actions a decision can record.
const (
	ActionSubmitted  = "submitted"
	ActionRejected   = "rejected"
	ActionSuppressed = "suppressed"
	ActionHalted     = "halted"
)

// Decision is one accept/reject/suppress/halt event with the ledger state
// that was current when it was made.
type Decision struct {
	ID       string
	Time     time.Time
	Symbol   string
	Action   string
	Reason   string
	Notional decimal.Decimal

	// Ledger state at decision time
	TradingDay    string
	NotionalSpent decimal.Decimal
	RealizedPnL   decimal.Decimal
	StopTriggered bool
}

type Journal interface {
	RecordDecision(Decision) error
	Close() error
}

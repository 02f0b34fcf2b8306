package risk

import "github.com/shopspring/decimal"

// Policy holds the hard limits the engine is never allowed to cross.
// Values come from config at startup and do not change while running.
type Policy struct {
	// CashReserveFraction of equity stays undeployed at all times, in [0, 1).
	CashReserveFraction decimal.Decimal

	// DailyBudgetCap is the maximum cumulative notional tradable per day.
	DailyBudgetCap decimal.Decimal

	// DailyProfitTarget stops trading for the day once realized P&L reaches it.
	DailyProfitTarget decimal.Decimal

	// Per-order constraints
	MaxOrderNotional decimal.Decimal
	MinOrderNotional decimal.Decimal
}

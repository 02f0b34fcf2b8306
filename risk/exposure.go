package risk

import (
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autopilot/broker"
)

// RemainingAllowance is the notional still deployable right now. It takes
// the tighter of two independent caps:
//
//   - the daily budget: DailyBudgetCap - NotionalSpent
//   - the cash reserve: equity*(1-reserve) - (equity - cash), i.e. how much
//     more can be deployed before the reserve floor is touched
//
// Never negative. Zero when the stop has fired or either cap is exhausted.
func RemainingAllowance(acct broker.AccountSnapshot, led DailyLedger, p Policy) decimal.Decimal {
	if led.StopTriggered || led.NotionalSpent.GreaterThanOrEqual(p.DailyBudgetCap) {
		return decimal.Zero
	}

	budgetRoom := p.DailyBudgetCap.Sub(led.NotionalSpent)

	maxDeployable := acct.Equity.Mul(decimal.NewFromInt(1).Sub(p.CashReserveFraction))
	deployed := acct.Equity.Sub(acct.Cash)
	reserveRoom := maxDeployable.Sub(deployed)

	room := decimal.Min(budgetRoom, reserveRoom)
	if room.IsNegative() {
		return decimal.Zero
	}
	return room
}

package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autopilot/broker"
)

// DayFormat is the civil-date key for a trading day.
const DayFormat = "2006-01-02"

// DailyLedger is the day-scoped accounting record: what has been spent,
// what has been realized, and whether the day's stop has fired.
type DailyLedger struct {
	TradingDay    string // formatted with DayFormat in the ledger's timezone
	NotionalSpent decimal.Decimal
	RealizedPnL   decimal.Decimal
	StopTriggered bool
}

// Store persists ledger records so a restart mid-day does not reset the
// daily budget. A nil Store on the Ledger means in-memory only.
type Store interface {
	LoadDay(day string) (DailyLedger, bool, error)
	SaveDay(DailyLedger) error
}

// Ledger owns the DailyLedger for the current trading day. It is not safe
// for concurrent use: the engine mutates it only from the serialized tick
// path, which is the only writer by design.
type Ledger struct {
	policy Policy
	loc    *time.Location
	store  Store
	state  DailyLedger
}

func NewLedger(p Policy, loc *time.Location, store Store) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{policy: p, loc: loc, store: store}
}

// CurrentDayState returns the ledger for now's trading day, rolling over to
// a fresh zeroed record first if the day has changed. Rollover is idempotent:
// repeated calls within the same day return the same record. On the first
// sight of a day it consults the Store, so a restart resumes the day's spend
// instead of forgetting it.
func (l *Ledger) CurrentDayState(now time.Time) (DailyLedger, error) {
	day := now.In(l.loc).Format(DayFormat)

	if l.state.TradingDay == day {
		return l.state, nil
	}
	if l.state.TradingDay != "" && day < l.state.TradingDay {
		return DailyLedger{}, invariantf("trading day moved backwards: %s -> %s", l.state.TradingDay, day)
	}

	fresh := DailyLedger{
		TradingDay:    day,
		NotionalSpent: decimal.Zero,
		RealizedPnL:   decimal.Zero,
	}
	if l.store != nil {
		stored, ok, err := l.store.LoadDay(day)
		if err != nil {
			return DailyLedger{}, err
		}
		if ok {
			fresh = stored
		}
	}

	l.state = fresh
	return l.state, l.save()
}

// RecordOutcome folds a broker outcome into the day's accounting. Spend only
// grows: a rejected or unfilled order contributes nothing, and a negative
// fill is an invariant violation. Realized P&L accrues on the closing side
// only (sells, under the long-only accrual policy).
func (l *Ledger) RecordOutcome(out broker.OrderOutcome, side broker.Side) error {
	if out.FilledNotional.IsNegative() {
		return invariantf("negative filled notional %s for order %s", out.FilledNotional, out.OrderID)
	}
	if !out.Accepted {
		return nil
	}

	l.state.NotionalSpent = l.state.NotionalSpent.Add(out.FilledNotional)
	if side == broker.Sell {
		l.state.RealizedPnL = l.state.RealizedPnL.Add(out.RealizedPL)
	}
	return l.save()
}

// TriggerStop halts trading for the remainder of the current day. There is
// no way to clear it other than the next day's rollover.
func (l *Ledger) TriggerStop() error {
	if l.state.StopTriggered {
		return nil
	}
	l.state.StopTriggered = true
	return l.save()
}

// IsHalted is true once the stop has fired or the daily budget is exhausted.
func (l *Ledger) IsHalted() bool {
	return l.state.StopTriggered ||
		l.state.NotionalSpent.GreaterThanOrEqual(l.policy.DailyBudgetCap)
}

func (l *Ledger) save() error {
	if l.store == nil {
		return nil
	}
	return l.store.SaveDay(l.state)
}

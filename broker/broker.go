package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// AccountSnapshot is a read-only view of the account, fetched once per tick
// and reused for every decision within that tick.
type AccountSnapshot struct {
	Equity      decimal.Decimal
	Cash        decimal.Decimal
	BuyingPower decimal.Decimal
}

// Position is an open holding reported by the broker.
type Position struct {
	Symbol        string
	Qty           decimal.Decimal
	MarketValue   decimal.Decimal
	AvgEntryPrice decimal.Decimal
}

// Clock is the broker's view of the market calendar.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// OrderRequest is a notional-sized market order. Immutable once built.
type OrderRequest struct {
	ClientOrderID string
	Symbol        string
	Side          Side
	Notional      decimal.Decimal
}

// OrderOutcome is the broker's answer to a submission. FilledNotional is
// zero when the order was rejected or unfilled. RealizedPL is the realized
// profit or loss attributed to this fill when it closes or reduces a
// position; brokers that do not report per-fill P&L leave it zero.
type OrderOutcome struct {
	OrderID        string
	Accepted       bool
	FilledNotional decimal.Decimal
	RealizedPL     decimal.Decimal
	Reason         string
}

type Broker interface {
	GetAccount(ctx context.Context) (AccountSnapshot, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetClock(ctx context.Context) (Clock, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderOutcome, error)
}

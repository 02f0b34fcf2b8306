package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/autopilot/broker"
)

func brokerSnapshot(equity, cash int64) broker.AccountSnapshot {
	return broker.AccountSnapshot{
		Equity:      decimal.NewFromInt(equity),
		Cash:        decimal.NewFromInt(cash),
		BuyingPower: decimal.NewFromInt(cash),
	}
}

func orderFor(notional int64) broker.OrderRequest {
	return broker.OrderRequest{
		Symbol:   "AAPL",
		Side:     broker.Buy,
		Notional: decimal.NewFromInt(notional),
	}
}

func TestValidate_Accepts(t *testing.T) {
	t.Parallel()

	d := Validate(orderFor(50), brokerSnapshot(10000, 10000), decimal.NewFromInt(90), testPolicy())
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Violations)
	assert.Empty(t, d.Reason())
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	p := testPolicy() // max order 200, min order 5

	tests := []struct {
		name      string
		notional  int64
		allowance int64
		acct      broker.AccountSnapshot
		wantCode  string
	}{
		{"exceeds allowance", 150, 90, brokerSnapshot(10000, 10000), "EXCEEDS_ALLOWANCE"},
		{"over per-order ceiling", 250, 1000, brokerSnapshot(10000, 10000), "ORDER_TOO_LARGE"},
		{"dust order", 2, 90, brokerSnapshot(10000, 10000), "ORDER_TOO_SMALL"},
		{"stale equity vs buying power", 80, 90, brokerSnapshot(10000, 10), "INSUFFICIENT_BUYING_POWER"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := Validate(orderFor(tt.notional), tt.acct, decimal.NewFromInt(tt.allowance), p)
			require.False(t, d.Allowed)

			codes := make([]string, 0, len(d.Violations))
			for _, v := range d.Violations {
				codes = append(codes, v.Code)
			}
			assert.Contains(t, codes, tt.wantCode)
			assert.NotEmpty(t, d.Reason())
		})
	}
}

func TestValidate_NonPositiveNotional(t *testing.T) {
	t.Parallel()

	d := Validate(orderFor(0), brokerSnapshot(10000, 10000), decimal.NewFromInt(90), testPolicy())
	require.False(t, d.Allowed)
	require.Len(t, d.Violations, 1)
	assert.Equal(t, "NO_NOTIONAL", d.Violations[0].Code)
}

func TestValidate_ReasonMentionsAllowance(t *testing.T) {
	t.Parallel()

	d := Validate(orderFor(150), brokerSnapshot(10000, 10000), decimal.NewFromInt(90), testPolicy())
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason(), "exceeds remaining allowance")
}

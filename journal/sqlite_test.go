package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/autopilot/pkg/id"
	"github.com/rustyeddy/autopilot/risk"
)

func newTestSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleDecision(symbol, action string) Decision {
	return Decision{
		ID:            id.New(),
		Time:          time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC),
		Symbol:        symbol,
		Action:        action,
		Reason:        "exceeds remaining allowance: requested 150, allowance 90",
		Notional:      decimal.NewFromInt(150),
		TradingDay:    "2026-03-09",
		NotionalSpent: decimal.NewFromInt(40),
		RealizedPnL:   decimal.NewFromInt(-3),
		StopTriggered: false,
	}
}

func TestSQLiteJournal_RecordAndList(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	require.NoError(t, j.RecordDecision(sampleDecision("AAPL", ActionRejected)))
	require.NoError(t, j.RecordDecision(sampleDecision("MSFT", ActionSubmitted)))

	decisions, err := j.ListDecisions(context.Background(), "2026-03-09")
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	// ULIDs sort by creation time, so insertion order is preserved.
	assert.Equal(t, "AAPL", decisions[0].Symbol)
	assert.Equal(t, ActionRejected, decisions[0].Action)
	assert.True(t, decisions[0].Notional.Equal(decimal.NewFromInt(150)))
	assert.True(t, decisions[0].RealizedPnL.Equal(decimal.NewFromInt(-3)))

	none, err := j.ListDecisions(context.Background(), "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteJournal_LedgerStore(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	_, ok, err := j.LoadDay("2026-03-09")
	require.NoError(t, err)
	assert.False(t, ok, "empty store has no record for the day")

	led := risk.DailyLedger{
		TradingDay:    "2026-03-09",
		NotionalSpent: decimal.NewFromInt(55),
		RealizedPnL:   decimal.RequireFromString("12.50"),
		StopTriggered: false,
	}
	require.NoError(t, j.SaveDay(led))

	// Upsert: saving the same day again overwrites, not duplicates.
	led.NotionalSpent = decimal.NewFromInt(80)
	led.StopTriggered = true
	require.NoError(t, j.SaveDay(led))

	got, ok, err := j.LoadDay("2026-03-09")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.NotionalSpent.Equal(decimal.NewFromInt(80)))
	assert.True(t, got.RealizedPnL.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, got.StopTriggered)
	assert.Equal(t, "2026-03-09", got.TradingDay)
}

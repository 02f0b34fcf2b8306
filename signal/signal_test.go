package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop_GetSignals(t *testing.T) {
	src := Noop{}

	sigs, err := src.GetSignals(context.Background(), []string{"AAPL", "MSFT"}, time.Now())
	assert.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestByName(t *testing.T) {
	t.Run("builtin noop", func(t *testing.T) {
		src, err := ByName("noop")
		require.NoError(t, err)
		assert.IsType(t, Noop{}, src)
	})

	t.Run("case and whitespace", func(t *testing.T) {
		src, err := ByName("  None ")
		require.NoError(t, err)
		assert.IsType(t, Noop{}, src)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ByName("astrology")
		assert.Error(t, err)
	})
}

func TestFunc_GetSignals(t *testing.T) {
	now := time.Now()
	src := Func(func(ctx context.Context, symbols []string, ts time.Time) ([]TradeSignal, error) {
		return []TradeSignal{{Symbol: symbols[0], Direction: Buy, Strength: 0.8, Time: ts}}, nil
	})

	sigs, err := src.GetSignals(context.Background(), []string{"SPY"}, now)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "SPY", sigs[0].Symbol)
	assert.Equal(t, Buy, sigs[0].Direction)
}

package signal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Direction is what a signal wants done with a symbol.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
	Flat Direction = "flat"
)

// TradeSignal is one actionable reading for one symbol. Strength is a
// normalized score in [0, 1]; how it is computed is the source's business.
type TradeSignal struct {
	Symbol    string
	Direction Direction
	Strength  float64
	Time      time.Time
}

// Source produces at most one signal per symbol per call. The engine pulls
// it once per tick; no ordering is guaranteed.
type Source interface {
	GetSignals(ctx context.Context, symbols []string, now time.Time) ([]TradeSignal, error)
}

// Func adapts a plain function to a Source.
type Func func(ctx context.Context, symbols []string, now time.Time) ([]TradeSignal, error)

func (f Func) GetSignals(ctx context.Context, symbols []string, now time.Time) ([]TradeSignal, error) {
	return f(ctx, symbols, now)
}

var registry = make(map[string]Source)

func Register(name string, src Source) {
	registry[name] = src
}

// ByName looks up a registered source. Built-ins: "noop".
func ByName(name string) (Source, error) {
	src, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown signal source %q", name)
	}
	return src, nil
}

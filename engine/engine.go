// Package engine is the control loop: each tick it pulls signals for the
// basket, runs them through the throttler, the exposure calculator and the
// order validator, submits the survivors, and folds the outcomes back into
// the day's ledger. Safety rejections are absorbed per signal; anything
// that smells like broken accounting stops the process.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autopilot/broker"
	"github.com/rustyeddy/autopilot/clockgate"
	"github.com/rustyeddy/autopilot/config"
	"github.com/rustyeddy/autopilot/journal"
	"github.com/rustyeddy/autopilot/pkg/id"
	"github.com/rustyeddy/autopilot/risk"
	"github.com/rustyeddy/autopilot/signal"
	"github.com/rustyeddy/autopilot/throttle"
)

// State names where the loop currently is, for logging and status checks.
type State string

const (
	Sleeping   State = "sleeping"
	Evaluating State = "evaluating"
	Submitting State = "submitting"
)

// Params wires the engine's collaborators. Config must already be
// validated. Journal and Store may be nil (no decision log, in-memory
// ledger).
type Params struct {
	Config  *config.Config
	Broker  broker.Broker
	Source  signal.Source
	Journal journal.Journal
	Store   risk.Store
	Logger  *slog.Logger
}

type Engine struct {
	policy risk.Policy
	basket []string

	broker   broker.Broker
	gate     *clockgate.Gate
	source   signal.Source
	ledger   *risk.Ledger
	throttle *throttle.Throttler
	journal  journal.Journal

	retry         RetryPolicy
	tickInterval  time.Duration
	orderNotional decimal.Decimal

	log *slog.Logger
	now func() time.Time

	mu    sync.RWMutex // guards state for external readers only
	state State
}

func New(p Params) (*Engine, error) {
	loc, err := p.Config.Location()
	if err != nil {
		return nil, err
	}
	tickInterval, err := p.Config.Engine.ParseTickInterval()
	if err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	retry := DefaultRetryPolicy()
	if p.Config.Engine.MaxRetries > 0 {
		retry.MaxAttempts = p.Config.Engine.MaxRetries
	}
	if p.Config.Engine.RetryBaseDelay != "" {
		if d, err := time.ParseDuration(p.Config.Engine.RetryBaseDelay); err == nil {
			retry.BaseDelay = d
		}
	}

	policy := p.Config.RiskPolicy()

	return &Engine{
		policy:        policy,
		basket:        p.Config.Basket,
		broker:        p.Broker,
		gate:          clockgate.New(p.Broker, log),
		source:        p.Source,
		ledger:        risk.NewLedger(policy, loc, p.Store),
		throttle:      throttle.New(p.Config.ThrottleSettings()),
		journal:       p.Journal,
		retry:         retry,
		tickInterval:  tickInterval,
		orderNotional: decimal.NewFromFloat(p.Config.Orders.Notional),
		log:           log,
		now:           time.Now,
		state:         Sleeping,
	}, nil
}

// State reports where the loop currently is.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Ledger exposes the risk ledger for status reporting.
func (e *Engine) Ledger() *risk.Ledger {
	return e.ledger
}

// Run drives the loop until the context is cancelled or an invariant
// violation surfaces. Cancellation between ticks is always clean: ledger
// and throttle updates are single atomic steps inside a tick.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started",
		slog.Any("basket", e.basket),
		slog.String("daily_budget_cap", e.policy.DailyBudgetCap.String()),
		slog.String("cash_reserve_fraction", e.policy.CashReserveFraction.String()))

	for {
		now := e.now()

		open, nextOpen := e.gate.Status(ctx, now)
		if !open {
			e.setState(Sleeping)
			e.log.Info("market closed, sleeping",
				slog.Time("next_open", nextOpen))
			if err := e.sleepUntil(ctx, nextOpen); err != nil {
				return e.finish(err)
			}
			continue
		}

		if err := e.Tick(ctx, now); err != nil {
			e.log.Error("fatal engine error", slog.Any("error", err))
			return err
		}

		if err := e.sleepFor(ctx, e.tickInterval); err != nil {
			return e.finish(err)
		}
	}
}

func (e *Engine) finish(err error) error {
	if errors.Is(err, context.Canceled) {
		e.log.Info("engine stopped")
		return nil
	}
	return err
}

// Tick runs one evaluation pass at the given instant. The trading day is
// resolved once here and reused for every decision in the pass, so a tick
// straddling midnight stays on one side of the boundary. Errors returned
// from Tick are fatal; safety rejections and transient broker trouble are
// absorbed inside.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	led, err := e.ledger.CurrentDayState(now)
	if err != nil {
		return err
	}

	if e.ledger.IsHalted() {
		e.log.Info("halted for the day",
			slog.String("trading_day", led.TradingDay),
			slog.String("notional_spent", led.NotionalSpent.String()),
			slog.String("realized_pnl", led.RealizedPnL.String()),
			slog.Bool("stop_triggered", led.StopTriggered))
		return nil
	}

	e.setState(Evaluating)

	acct, err := e.getAccount(ctx)
	if err != nil {
		e.log.Warn("account fetch failed, skipping tick", slog.Any("error", err))
		return nil
	}
	positions, err := e.getPositions(ctx)
	if err != nil {
		e.log.Warn("positions fetch failed, skipping tick", slog.Any("error", err))
		return nil
	}

	sigs, err := e.source.GetSignals(ctx, e.basket, now)
	if err != nil {
		e.log.Warn("signal pull failed, skipping tick", slog.Any("error", err))
		return nil
	}

	for _, sig := range sigs {
		if ctx.Err() != nil {
			return nil
		}
		if err := e.evaluateSignal(ctx, sig, acct, positions, now); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) evaluateSignal(
	ctx context.Context,
	sig signal.TradeSignal,
	acct broker.AccountSnapshot,
	positions []broker.Position,
	now time.Time,
) error {
	if sig.Direction == signal.Flat {
		return nil
	}

	// A stop can fire mid-tick; later signals in the same pass must see it.
	led, err := e.ledger.CurrentDayState(now)
	if err != nil {
		return err
	}
	if e.ledger.IsHalted() {
		return nil
	}

	if !e.throttle.ShouldEmit(sig, now) {
		e.suppress(sig, "throttled", led, now)
		return nil
	}

	if sig.Direction == signal.Sell && !hasPosition(positions, sig.Symbol) {
		e.suppress(sig, "no open position", led, now)
		return nil
	}

	allowance := risk.RemainingAllowance(acct, led, e.policy)
	if !allowance.IsPositive() {
		e.suppress(sig, "no remaining allowance", led, now)
		return nil
	}

	req := broker.OrderRequest{
		ClientOrderID: id.New(),
		Symbol:        sig.Symbol,
		Side:          sideFor(sig.Direction),
		Notional:      e.orderNotional,
	}

	decision := risk.Validate(req, acct, allowance, e.policy)
	if !decision.Allowed {
		e.log.Info("order rejected",
			slog.String("symbol", req.Symbol),
			slog.String("reason", decision.Reason()),
			slog.String("notional_spent", led.NotionalSpent.String()))
		e.record(journal.Decision{
			Symbol:   req.Symbol,
			Action:   journal.ActionRejected,
			Reason:   decision.Reason(),
			Notional: req.Notional,
		}, led, now)
		return nil
	}

	e.setState(Submitting)
	out := e.submit(ctx, req)
	e.setState(Evaluating)

	if err := e.ledger.RecordOutcome(out, req.Side); err != nil {
		return err
	}
	led, err = e.ledger.CurrentDayState(now)
	if err != nil {
		return err
	}

	if out.Accepted {
		e.log.Info("order submitted",
			slog.String("symbol", req.Symbol),
			slog.String("side", string(req.Side)),
			slog.String("notional", out.FilledNotional.String()),
			slog.String("notional_spent", led.NotionalSpent.String()),
			slog.String("realized_pnl", led.RealizedPnL.String()))
		e.record(journal.Decision{
			Symbol:   req.Symbol,
			Action:   journal.ActionSubmitted,
			Notional: out.FilledNotional,
		}, led, now)
	} else {
		e.log.Info("order rejected by broker",
			slog.String("symbol", req.Symbol),
			slog.String("reason", out.Reason),
			slog.String("notional_spent", led.NotionalSpent.String()))
		e.record(journal.Decision{
			Symbol:   req.Symbol,
			Action:   journal.ActionRejected,
			Reason:   out.Reason,
			Notional: req.Notional,
		}, led, now)
	}

	return e.checkStops(led, now)
}

// checkStops fires the daily stop when the profit target or budget cap is
// reached. A non-positive profit target disables the target check.
func (e *Engine) checkStops(led risk.DailyLedger, now time.Time) error {
	var reason string
	switch {
	case e.policy.DailyProfitTarget.IsPositive() &&
		led.RealizedPnL.GreaterThanOrEqual(e.policy.DailyProfitTarget):
		reason = "daily profit target reached"
	case led.NotionalSpent.GreaterThanOrEqual(e.policy.DailyBudgetCap):
		reason = "daily budget cap reached"
	default:
		return nil
	}

	if err := e.ledger.TriggerStop(); err != nil {
		return err
	}
	led, err := e.ledger.CurrentDayState(now)
	if err != nil {
		return err
	}

	e.log.Warn("daily stop triggered",
		slog.String("reason", reason),
		slog.String("trading_day", led.TradingDay),
		slog.String("notional_spent", led.NotionalSpent.String()),
		slog.String("realized_pnl", led.RealizedPnL.String()))
	e.record(journal.Decision{
		Action: journal.ActionHalted,
		Reason: reason,
	}, led, now)
	return nil
}

// submit places the order with bounded retries on transient failures. A
// submission that stays transient past the retry budget is treated as a
// rejection for this tick, never as a halt.
func (e *Engine) submit(ctx context.Context, req broker.OrderRequest) broker.OrderOutcome {
	var out broker.OrderOutcome
	err := e.retry.Do(ctx, func() error {
		var err error
		out, err = e.broker.SubmitOrder(ctx, req)
		if err != nil && broker.Transient(err) {
			e.log.Warn("transient submission failure, retrying",
				slog.String("symbol", req.Symbol),
				slog.Any("error", err))
		}
		return err
	})
	if err != nil {
		return broker.OrderOutcome{
			Accepted:       false,
			FilledNotional: decimal.Zero,
			Reason:         err.Error(),
		}
	}
	return out
}

func (e *Engine) getAccount(ctx context.Context) (broker.AccountSnapshot, error) {
	var acct broker.AccountSnapshot
	err := e.retry.Do(ctx, func() error {
		var err error
		acct, err = e.broker.GetAccount(ctx)
		return err
	})
	return acct, err
}

func (e *Engine) getPositions(ctx context.Context) ([]broker.Position, error) {
	var positions []broker.Position
	err := e.retry.Do(ctx, func() error {
		var err error
		positions, err = e.broker.GetPositions(ctx)
		return err
	})
	return positions, err
}

func (e *Engine) suppress(sig signal.TradeSignal, reason string, led risk.DailyLedger, now time.Time) {
	e.log.Info("signal suppressed",
		slog.String("symbol", sig.Symbol),
		slog.String("direction", string(sig.Direction)),
		slog.String("reason", reason),
		slog.String("notional_spent", led.NotionalSpent.String()))
	e.record(journal.Decision{
		Symbol: sig.Symbol,
		Action: journal.ActionSuppressed,
		Reason: reason,
	}, led, now)
}

// record writes a decision to the journal. Journal trouble is logged and
// swallowed: losing one observability record is not a reason to stop
// enforcing limits.
func (e *Engine) record(d journal.Decision, led risk.DailyLedger, now time.Time) {
	if e.journal == nil {
		return
	}

	d.ID = id.New()
	d.Time = now
	d.TradingDay = led.TradingDay
	d.NotionalSpent = led.NotionalSpent
	d.RealizedPnL = led.RealizedPnL
	d.StopTriggered = led.StopTriggered

	if err := e.journal.RecordDecision(d); err != nil {
		e.log.Warn("journal write failed", slog.Any("error", err))
	}
}

func (e *Engine) sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	return e.sleepFor(ctx, d)
}

func (e *Engine) sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func sideFor(dir signal.Direction) broker.Side {
	if dir == signal.Sell {
		return broker.Sell
	}
	return broker.Buy
}

func hasPosition(positions []broker.Position, symbol string) bool {
	for _, p := range positions {
		if p.Symbol == symbol && !p.Qty.IsZero() {
			return true
		}
	}
	return false
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/autopilot/risk"
	"github.com/rustyeddy/autopilot/throttle"
)

// Config is the complete static configuration, loaded once at process start.
type Config struct {
	Broker   BrokerConfig   `json:"broker" yaml:"broker"`
	Basket   []string       `json:"basket" yaml:"basket"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Throttle ThrottleConfig `json:"throttle" yaml:"throttle"`
	Orders   OrderConfig    `json:"orders" yaml:"orders"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// BrokerConfig selects the trading environment. Credentials come from the
// environment (APCA_API_KEY_ID / APCA_API_SECRET_KEY), never from the file.
type BrokerConfig struct {
	Env string `json:"env" yaml:"env"` // "paper" or "live"
}

// RiskConfig contains the hard limits. Timezone sets the trading-day
// boundary for the ledger (IANA name, default America/New_York).
type RiskConfig struct {
	CashReserveFraction float64 `json:"cash_reserve_fraction" yaml:"cash_reserve_fraction"`
	DailyBudgetCap      float64 `json:"daily_budget_cap" yaml:"daily_budget_cap"`
	DailyProfitTarget   float64 `json:"daily_profit_target" yaml:"daily_profit_target"`
	Timezone            string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// ThrottleConfig bounds per-symbol order frequency.
type ThrottleConfig struct {
	MaxOrdersPerWindow int     `json:"max_orders_per_window" yaml:"max_orders_per_window"`
	Window             string  `json:"window" yaml:"window"` // e.g. "60s", "5m"
	BaseThreshold      float64 `json:"base_threshold" yaml:"base_threshold"`
	TightenStep        float64 `json:"tighten_step" yaml:"tighten_step"`
}

// ParseWindow converts the window string to a time.Duration.
func (tc ThrottleConfig) ParseWindow() (time.Duration, error) {
	return time.ParseDuration(tc.Window)
}

// OrderConfig sizes orders. Notional is the fixed requested notional per
// order; Max/Min bound what the validator will let through.
type OrderConfig struct {
	Notional    float64 `json:"notional" yaml:"notional"`
	MaxNotional float64 `json:"max_notional" yaml:"max_notional"`
	MinNotional float64 `json:"min_notional" yaml:"min_notional"`
}

// EngineConfig drives the control loop.
type EngineConfig struct {
	TickInterval   string `json:"tick_interval" yaml:"tick_interval"`
	SignalSource   string `json:"signal_source" yaml:"signal_source"`
	MaxRetries     int    `json:"max_retries" yaml:"max_retries"`
	RetryBaseDelay string `json:"retry_base_delay,omitempty" yaml:"retry_base_delay,omitempty"`
}

// ParseTickInterval converts the tick interval string to a time.Duration.
func (ec EngineConfig) ParseTickInterval() (time.Duration, error) {
	return time.ParseDuration(ec.TickInterval)
}

// JournalConfig selects where decisions are recorded. The sqlite journal
// also persists the daily ledger, which is what makes the budget survive a
// mid-day restart.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DecisionsFile string `json:"decisions_file,omitempty" yaml:"decisions_file,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid. Any error here is fatal at
// startup: the engine refuses to run on limits it cannot trust.
func (c *Config) Validate() error {
	if c.Broker.Env != "paper" && c.Broker.Env != "live" {
		return fmt.Errorf("broker.env must be 'paper' or 'live'")
	}
	if len(c.Basket) == 0 {
		return fmt.Errorf("basket must contain at least one symbol")
	}
	seen := make(map[string]bool, len(c.Basket))
	for _, sym := range c.Basket {
		if sym == "" {
			return fmt.Errorf("basket contains an empty symbol")
		}
		if seen[sym] {
			return fmt.Errorf("basket contains duplicate symbol %s", sym)
		}
		seen[sym] = true
	}

	if c.Risk.CashReserveFraction < 0 || c.Risk.CashReserveFraction >= 1 {
		return fmt.Errorf("risk.cash_reserve_fraction must be in [0, 1)")
	}
	if c.Risk.DailyBudgetCap <= 0 {
		return fmt.Errorf("risk.daily_budget_cap must be positive")
	}
	if c.Risk.Timezone != "" {
		if _, err := time.LoadLocation(c.Risk.Timezone); err != nil {
			return fmt.Errorf("risk.timezone: %w", err)
		}
	}

	if c.Throttle.MaxOrdersPerWindow <= 0 {
		return fmt.Errorf("throttle.max_orders_per_window must be positive")
	}
	if w, err := c.Throttle.ParseWindow(); err != nil || w <= 0 {
		return fmt.Errorf("throttle.window must be a positive duration (e.g. \"60s\")")
	}
	if c.Throttle.BaseThreshold < 0 || c.Throttle.BaseThreshold > 1 {
		return fmt.Errorf("throttle.base_threshold must be in [0, 1]")
	}
	if c.Throttle.TightenStep < 0 {
		return fmt.Errorf("throttle.tighten_step must not be negative")
	}

	if c.Orders.MinNotional <= 0 {
		return fmt.Errorf("orders.min_notional must be positive")
	}
	if c.Orders.MaxNotional < c.Orders.MinNotional {
		return fmt.Errorf("orders.max_notional must be at least orders.min_notional")
	}
	if c.Orders.Notional < c.Orders.MinNotional || c.Orders.Notional > c.Orders.MaxNotional {
		return fmt.Errorf("orders.notional must be within [min_notional, max_notional]")
	}

	if ti, err := c.Engine.ParseTickInterval(); err != nil || ti <= 0 {
		return fmt.Errorf("engine.tick_interval must be a positive duration (e.g. \"30s\")")
	}
	if c.Engine.SignalSource == "" {
		return fmt.Errorf("engine.signal_source is required")
	}
	if c.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine.max_retries must not be negative")
	}
	if c.Engine.RetryBaseDelay != "" {
		if d, err := time.ParseDuration(c.Engine.RetryBaseDelay); err != nil || d <= 0 {
			return fmt.Errorf("engine.retry_base_delay must be a positive duration")
		}
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	case "csv":
		if c.Journal.DecisionsFile == "" {
			return fmt.Errorf("journal.decisions_file required for csv type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}

	return nil
}

// RiskPolicy converts the float config into the decimal policy the risk
// package works in.
func (c *Config) RiskPolicy() risk.Policy {
	return risk.Policy{
		CashReserveFraction: decimal.NewFromFloat(c.Risk.CashReserveFraction),
		DailyBudgetCap:      decimal.NewFromFloat(c.Risk.DailyBudgetCap),
		DailyProfitTarget:   decimal.NewFromFloat(c.Risk.DailyProfitTarget),
		MaxOrderNotional:    decimal.NewFromFloat(c.Orders.MaxNotional),
		MinOrderNotional:    decimal.NewFromFloat(c.Orders.MinNotional),
	}
}

// ThrottleSettings converts the throttle section. Call Validate first; the
// window string is assumed parseable here.
func (c *Config) ThrottleSettings() throttle.Config {
	w, _ := c.Throttle.ParseWindow()
	return throttle.Config{
		MaxOrdersPerWindow: c.Throttle.MaxOrdersPerWindow,
		Window:             w,
		BaseThreshold:      c.Throttle.BaseThreshold,
		TightenStep:        c.Throttle.TightenStep,
	}
}

// Location returns the trading-day timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Risk.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	return time.LoadLocation(tz)
}

// Default returns a configuration with sensible paper-trading defaults.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{Env: "paper"},
		Basket: []string{"AAPL", "MSFT", "SPY"},
		Risk: RiskConfig{
			CashReserveFraction: 0.25,
			DailyBudgetCap:      500,
			DailyProfitTarget:   50,
			Timezone:            "America/New_York",
		},
		Throttle: ThrottleConfig{
			MaxOrdersPerWindow: 2,
			Window:             "15m",
			BaseThreshold:      0.5,
			TightenStep:        0.15,
		},
		Orders: OrderConfig{
			Notional:    100,
			MaxNotional: 250,
			MinNotional: 10,
		},
		Engine: EngineConfig{
			TickInterval: "60s",
			SignalSource: "noop",
			MaxRetries:   3,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./autopilot.db",
		},
	}
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/autopilot/alpaca"
	"github.com/rustyeddy/autopilot/config"
	"github.com/rustyeddy/autopilot/engine"
	"github.com/rustyeddy/autopilot/journal"
	"github.com/rustyeddy/autopilot/risk"
	"github.com/rustyeddy/autopilot/signal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop from a config file",
	Long: `Run the control loop using settings from a configuration file.

Broker credentials are read from the environment (APCA_API_KEY_ID,
APCA_API_SECRET_KEY), with a .env file in the working directory honored if
present.

Example:
  autopilot run -f configs/paper.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; the variables may already be exported.
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	client, err := alpaca.NewClientFromEnv(cfg.Broker.Env == "paper")
	if err != nil {
		return fmt.Errorf("broker credentials: %w", err)
	}

	var jnl journal.Journal
	var store risk.Store
	switch cfg.Journal.Type {
	case "sqlite":
		sq, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		jnl, store = sq, sq
	case "csv":
		jnl, err = journal.NewCSV(cfg.Journal.DecisionsFile)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
	}
	if jnl != nil {
		defer jnl.Close()
	}

	src, err := signal.ByName(cfg.Engine.SignalSource)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Params{
		Config:  cfg,
		Broker:  client,
		Source:  src,
		Journal: jnl,
		Store:   store,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return eng.Run(ctx)
}

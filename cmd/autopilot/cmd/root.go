package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "A risk-managed automated trading control loop",
	Long: `Autopilot runs a scheduled trading loop over a fixed basket of symbols,
turning trade signals into orders only when hard safety limits allow it:

  - a cash reserve floor that is never deployed
  - a daily notional budget with an irreversible daily stop
  - per-symbol order throttling with signal tightening
  - a final order validator in front of every submission

Every accept, reject, suppress and halt decision is journaled together with
the ledger state it was made against.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

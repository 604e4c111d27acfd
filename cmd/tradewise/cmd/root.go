package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "tradewise",
	Short: "Equity signal and life-time-high tracker",
	Long: `Tradewise ingests daily price history for curated stock universes,
derives V20 breakout and moving-average crossover signals, keeps one
life-time high per ticker and lists stored signals with live annotations.

Examples:
  tradewise process-stocks
  tradewise process-lth --update-only --days-back 30
  tradewise signals --below-lth 20 --live
  tradewise schedule`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context; batch runs stop between symbols and record what they finished.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", def, "path to the YAML config file")
}

package cmd

import (
	"tradewise/internal/batch"
	"tradewise/internal/strategy"

	"github.com/spf13/cobra"
)

var processStocksCmd = &cobra.Command{
	Use:   "process-stocks",
	Short: "Generate V20 breakout signals for every universe",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runSignals(cmd, strategy.KindBreakout) },
}

var processMACmd = &cobra.Command{
	Use:   "process-ma",
	Short: "Generate moving-average crossover signals for every universe",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runSignals(cmd, strategy.KindMovingAverage) },
}

var processLTHCmd = &cobra.Command{
	Use:   "process-lth",
	Short: "Refresh life-time highs for every universe",
	Long: `Refresh the life-time high of every symbol in every universe.

Without --update-only the full configured history is scanned. With it only
the last --days-back days are fetched, which is enough once the table has
been seeded.`,
	Args: cobra.NoArgs,
	RunE: runProcessLTH,
}

var lthOpts batch.LTHOptions

func init() {
	rootCmd.AddCommand(processStocksCmd, processMACmd, processLTHCmd)
	processLTHCmd.Flags().BoolVar(&lthOpts.UpdateOnly, "update-only", false, "fetch only recent days")
	processLTHCmd.Flags().IntVar(&lthOpts.DaysBack, "days-back", 0, "days to fetch with --update-only (default from config)")
}

func runSignals(cmd *cobra.Command, kind strategy.Kind) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.runner().ProcessSignals(cmd.Context(), kind)
	return err
}

func runProcessLTH(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.runner().ProcessLTH(cmd.Context(), lthOpts)
	return err
}

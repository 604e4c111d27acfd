package cmd

import (
	"os"
	"strings"

	"tradewise/internal/model"
	"tradewise/internal/report"

	"github.com/spf13/cobra"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List stored signals, deduplicated and annotated",
	Long: `List stored signals newest first. Identical signals stored by more than
one universe are shown once.

With --live the current price of each symbol is fetched once and used for
the change since the signal and the distance from the life-time high.
--below-lth implies --live.

Examples:
  tradewise signals --strategy v20 --universe v40
  tradewise signals --below-lth 20`,
	Args: cobra.NoArgs,
	RunE: runSignalList,
}

var (
	sigStrategy string
	sigUniverse string
	sigSymbol   string
	sigAction   string
	sigBelowLTH float64
	sigLive     bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	f := signalsCmd.Flags()
	f.StringVar(&sigStrategy, "strategy", "", "only this strategy (v20, ma_cross)")
	f.StringVar(&sigUniverse, "universe", "", "only this universe")
	f.StringVar(&sigSymbol, "symbol", "", "only this symbol")
	f.StringVar(&sigAction, "action", "", "only buy or sell signals")
	f.Float64Var(&sigBelowLTH, "below-lth", 0, "only symbols at least this many percent below their life-time high")
	f.BoolVar(&sigLive, "live", false, "annotate with current prices")
}

func runSignalList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := report.Options{
		Live:             sigLive || sigBelowLTH > 0,
		BelowLTHPct:      sigBelowLTH,
		NewWithinDays:    a.cfg.Signals.NewWithinDays,
		NearThresholdPct: a.cfg.LTH.NearThresholdPct,
	}
	opts.Filter.Strategy = sigStrategy
	opts.Filter.Universe = sigUniverse
	opts.Filter.Symbol = strings.ToUpper(sigSymbol)
	if sigAction != "" {
		if opts.Filter.Action, err = model.ParseAction(sigAction); err != nil {
			return err
		}
	}

	rows, err := report.NewLister(a.store, a.store, a.prices).List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return report.WriteSignals(os.Stdout, rows)
}

package cmd

import (
	"log"
	"os"
	"strings"

	"tradewise/internal/calculator"
	"tradewise/internal/report"

	"github.com/spf13/cobra"
)

var lthCmd = &cobra.Command{
	Use:   "lth [SYMBOL...]",
	Short: "List life-time-high records",
	Long: `List life-time-high records, all of them or only the given symbols.

With --price the current price of each listed symbol is fetched and the
distance from its high is shown.`,
	RunE: runLTHList,
}

var lthWithPrice bool

func init() {
	rootCmd.AddCommand(lthCmd)
	lthCmd.Flags().BoolVar(&lthWithPrice, "price", false, "show distance from the current price")
}

func runLTHList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := make([]string, len(args))
	for i, s := range args {
		symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	recs, err := a.store.ListLTH(cmd.Context(), symbols)
	if err != nil {
		return err
	}

	distances := make(map[string]float64)
	if lthWithPrice {
		for _, r := range recs {
			p, err := a.prices.Price(cmd.Context(), r.Symbol)
			if err != nil {
				log.Printf("[WARN] current price %s: %v", r.Symbol, err)
				continue
			}
			high, _ := r.Price.Float64()
			if d, ok := calculator.DistanceFromLTH(p, high); ok {
				distances[r.Symbol] = d
			}
		}
	}
	return report.WriteLTH(os.Stdout, recs, distances)
}

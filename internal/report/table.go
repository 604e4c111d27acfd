package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"tradewise/internal/model"
)

const na = "-"

func pct(v float64, ok bool) string {
	if !ok {
		return na
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func nullPrice(ok bool, s string) string {
	if !ok {
		return na
	}
	return s
}

// WriteSignals renders rows as an aligned text table.
func WriteSignals(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSYMBOL\tACTION\tPRICE\tBUY\tSELL\tGAIN\tSTRATEGY\tUNIVERSE\tNOW\tCHANGE\tFROM LTH\tNEAR\tNEW")
	for _, r := range rows {
		s := r.Signal
		near := na
		if r.DistanceOK {
			near = strconv.FormatBool(r.Near)
		}
		newMark := ""
		if r.IsNew {
			newMark = "*"
		}
		now := na
		if r.CurrentOK {
			now = strconv.FormatFloat(r.Current, 'f', 2, 64)
		}
		gain := na
		if s.ExpectedGain.Valid {
			gain = s.ExpectedGain.Decimal.StringFixed(model.GainPlaces) + "%"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Date.Format("2006-01-02"), s.Symbol, s.Action,
			s.Price.StringFixed(model.PricePlaces),
			nullPrice(s.BuyPrice.Valid, s.BuyPrice.Decimal.StringFixed(model.PricePlaces)),
			nullPrice(s.SellPrice.Valid, s.SellPrice.Decimal.StringFixed(model.PricePlaces)),
			gain, s.Strategy, s.Universe,
			now, pct(r.ChangePct, r.ChangeOK), pct(r.Distance, r.DistanceOK), near, newMark)
	}
	return tw.Flush()
}

// WriteLTH renders life-time-high records with optional distances keyed by symbol.
func WriteLTH(w io.Writer, recs []model.LTHRecord, distances map[string]float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tLTH\tDATE\tUNIVERSE\tUPDATED\tFROM LTH")
	for _, r := range recs {
		d, ok := distances[r.Symbol]
		universe := r.Universe
		if universe == "" {
			universe = na
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Symbol, r.Price.StringFixed(model.LTHPlaces), r.Date.Format("2006-01-02"),
			universe, r.LastUpdated.Format("2006-01-02 15:04"), pct(d, ok))
	}
	return tw.Flush()
}

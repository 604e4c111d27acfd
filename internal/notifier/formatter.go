package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"tradewise/internal/model"
)

var jobTitles = map[string]string{
	model.JobBreakout:      "V20 breakout signals",
	model.JobMovingAverage: "Moving-average signals",
	model.JobLTH:           "Life-time highs",
}

func jobTitle(job string) string {
	if t, ok := jobTitles[job]; ok {
		return t
	}
	return job
}

// FormatRunSummary formats a finished batch run into a Telegram message.
func FormatRunSummary(run model.RunRecord, runErr error) string {
	var b strings.Builder

	icon := "✅"
	if runErr != nil || run.Stats.Errors > 0 {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", icon, jobTitle(run.Job), run.StartedAt.Format("2006-01-02 15:04")))

	st := run.Stats
	b.WriteString(fmt.Sprintf("Symbols: %d (errors %d)\n", st.Processed, st.Errors))
	if run.Job == model.JobLTH {
		b.WriteString(fmt.Sprintf("New: %d | Raised: %d | Unchanged: %d\n", st.Created, st.Updated, st.Unchanged))
	} else {
		b.WriteString(fmt.Sprintf("Signals stored: %d\n", st.Created))
	}
	b.WriteString(fmt.Sprintf("Took %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second)))

	if runErr != nil {
		b.WriteString(fmt.Sprintf("\n<b>Failed:</b> %s\n", html.EscapeString(runErr.Error())))
	}
	b.WriteString(fmt.Sprintf("\n<code>%s</code>", run.ID))
	return b.String()
}

// FormatRuns lists recent runs, newest first.
func FormatRuns(runs []model.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s: %d symbols, %d created, %d updated, %d errors\n",
			r.StartedAt.Format("01-02 15:04"), r.Job,
			r.Stats.Processed, r.Stats.Created, r.Stats.Updated, r.Stats.Errors))
	}
	return b.String()
}

// FormatLTH describes a symbol's life-time high and, when known, the
// distance of the current price from it.
func FormatLTH(rec model.LTHRecord, current float64, distance float64, ok bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏔 <b>%s</b> LTH %s on %s\n", html.EscapeString(rec.Symbol),
		rec.Price.StringFixed(2), rec.Date.Format("2006-01-02")))
	if ok {
		b.WriteString(fmt.Sprintf("Now %.2f (%+.2f%% from high)\n", current, distance))
	} else {
		b.WriteString("Current distance unavailable\n")
	}
	return b.String()
}

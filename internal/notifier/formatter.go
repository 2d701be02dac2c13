package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"bankcap/internal/pipeline"
	"bankcap/internal/recorder"
)

// FormatRunSummary formats a finished run into a Telegram message.
func FormatRunSummary(rep *pipeline.Report, table string) string {
	var b strings.Builder

	status := "✅"
	if rep.State == pipeline.Failed {
		status = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>bankcap run</b> | %s\n\n", status, rep.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", rep.RunID))
	b.WriteString(fmt.Sprintf("State: %s\n", rep.State))
	if rep.Records != nil {
		b.WriteString(fmt.Sprintf("Banks: %d", rep.Records.Len()))
		if rep.Missing > 0 {
			b.WriteString(fmt.Sprintf(" (%d without value)", rep.Missing))
		}
		b.WriteString("\n")
	}
	if rep.State == pipeline.Done {
		b.WriteString(fmt.Sprintf("Table: %s\n", html.EscapeString(table)))
		b.WriteString(fmt.Sprintf("Queries: %d\n", len(rep.Results)))
	}
	if rep.Err != nil {
		b.WriteString(fmt.Sprintf("\n%s\n", html.EscapeString(rep.Err.Error())))
	}
	b.WriteString(fmt.Sprintf("Took: %s\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond)))

	// Top of the listing, as extracted.
	if rep.Records != nil && rep.Records.Len() > 0 {
		b.WriteString("\n<b>Top banks (USD bn):</b>\n")
		for i, r := range rep.Records.Records {
			if i == 5 {
				break
			}
			v := "n/a"
			if r.MarketCapUSD.Valid {
				v = r.MarketCapUSD.Decimal.StringFixed(2)
			}
			b.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, html.EscapeString(r.Name), v))
		}
	}
	return b.String()
}

// FormatLastRun formats the most recent history entry for a chat reply.
func FormatLastRun(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	r := runs[0]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Last run</b> | %s\n\n", r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("State: %s\n", r.State))
	b.WriteString(fmt.Sprintf("Banks: %d | Queries: %d\n", r.Records, r.Queries))
	if r.Stage != "" {
		b.WriteString(fmt.Sprintf("Failed at %s (%s)\n", r.Stage, html.EscapeString(r.ErrorKind)))
	}
	return b.String()
}

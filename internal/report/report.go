// Package report renders query results, run outcomes and run history for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"bankcap/internal/apperrors"
	"bankcap/internal/model"
	"bankcap/internal/pipeline"
	"bankcap/internal/recorder"
)

// FormatValue renders one scanned column value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// WriteQueryResult prints the statement followed by an aligned table of its rows.
func WriteQueryResult(w io.Writer, res *model.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	title := res.SQL
	if res.Name != "" {
		title = res.Name + ": " + res.SQL
	}
	fmt.Fprintln(tw, title)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = FormatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(parts, "\t"))
	}
	fmt.Fprintf(tw, "(%d rows)\n", len(res.Rows))
	return tw.Flush()
}

// WriteRun prints the outcome of a run and every query result it produced.
func WriteRun(w io.Writer, rep *pipeline.Report) error {
	fmt.Fprintf(w, "run %s: %s", rep.RunID, rep.State)
	if rep.Records != nil {
		fmt.Fprintf(w, ", %d banks", rep.Records.Len())
	}
	fmt.Fprintf(w, " in %s\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	if rep.Err != nil {
		fmt.Fprintf(w, "stage: %s\nkind: %s\nerror: %v\n", rep.FailedStage(), apperrors.KindName(rep.Err), rep.Err)
		return nil
	}
	for _, res := range rep.Results {
		fmt.Fprintln(w)
		if err := WriteQueryResult(w, res); err != nil {
			return err
		}
	}
	return nil
}

// WriteHistory prints one line per recorded run.
func WriteHistory(w io.Writer, runs []recorder.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tSTATE\tBANKS\tQUERIES\tFAILURE")
	for _, r := range runs {
		failure := ""
		if r.Stage != "" {
			failure = r.Stage + ": " + r.ErrorKind
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.RunID, r.State, r.Records, r.Queries, failure)
	}
	return tw.Flush()
}

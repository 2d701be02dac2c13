package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bankcap/internal/apperrors"
	"bankcap/internal/recorder"
	"bankcap/internal/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.History.SQLitePath == "" {
				return fmt.Errorf("%w: history.sqlite_path is not set", apperrors.ErrConfig)
			}
			ctx := cmd.Context()
			rec, err := recorder.NewSQLiteRecorder(ctx, a.cfg.History.SQLitePath)
			if err != nil {
				return err
			}
			defer rec.Close()

			runs, err := rec.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return report.WriteHistory(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"bankcap/internal/database"
	"bankcap/internal/query"
	"bankcap/internal/report"
)

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only query against the loaded table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := database.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := query.Run(ctx, db, args[0])
			if err != nil {
				return err
			}
			return report.WriteQueryResult(cmd.OutOrStdout(), res)
		},
	}
}

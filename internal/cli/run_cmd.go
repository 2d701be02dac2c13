package cli

import (
	"github.com/spf13/cobra"

	"bankcap/internal/extractor"
	"bankcap/internal/notifier"
	"bankcap/internal/report"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		source string
		policy string
		notify bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if source != "" {
				a.cfg.Source.URL = source
			}
			if policy != "" {
				if _, err := extractor.ParsePolicyFromString(policy); err != nil {
					return err
				}
				a.cfg.Extract.ParsePolicy = policy
			}
			ctx := cmd.Context()

			rec := a.openRecorder(ctx)
			defer rec.Close()

			rep, runErr := a.newPipeline(rec).Run(ctx)
			if err := report.WriteRun(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if tn := a.newNotifier(); notify && tn != nil {
				if err := tn.SendWithRetry(ctx, notifier.FormatRunSummary(rep, a.cfg.Database.Table), 3); err != nil {
					cmd.PrintErrf("notification failed: %v\n", err)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Override the source URL (http(s)://, file:// or a local path)")
	cmd.Flags().StringVar(&policy, "parse-policy", "", "Override the parse policy (strict, lenient)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send a run summary to Telegram when configured")
	return cmd
}

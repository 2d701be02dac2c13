package cli

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bankcap/internal/scheduler"
)

func newScheduleCmd(a *app) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec := a.openRecorder(ctx)
			defer rec.Close()

			tn := a.newNotifier()
			var n scheduler.Notifier
			if tn != nil {
				n = tn
			}

			sched := scheduler.NewScheduler(ctx, a.newPipeline(rec), n, rec, a.cfg.Database.Table)
			if err := sched.Register(a.cfg.Schedule.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info("telegram polling started")
			}
			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				log.Info("run-on-start enabled, executing pipeline now")
				sched.RunAsync()
			}

			log.Infof("bankcap scheduler running (%s). Press Ctrl+C to stop.", a.cfg.Schedule.Cron)
			<-ctx.Done()
			log.Info("shutdown signal received, stopping...")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run the pipeline once immediately")
	return cmd
}

// Package cli implements the bankcap command line.
package cli

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bankcap/internal/collector"
	"bankcap/internal/config"
	"bankcap/internal/notifier"
	"bankcap/internal/pipeline"
	"bankcap/internal/recorder"
)

const defaultConfigPath = "configs/config.yaml"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app carries the resolved configuration to subcommands.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "bankcap",
		Short:         "Largest banks market cap ETL",
		Long:          "Extracts the largest banks listing, converts market caps into other currencies, loads them into a CSV file and a database table, and runs reporting queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("config") {
				if v := os.Getenv("CONFIG_PATH"); v != "" {
					a.configPath = v
				}
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			return setupLogging(cfg.Log.Level)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newScheduleCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))

	return rootCmd
}

func setupLogging(level string) error {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return nil
}

// openRecorder returns the history recorder, falling back to a no-op one when
// history is disabled or cannot be opened.
func (a *app) openRecorder(ctx context.Context) recorder.Recorder {
	if a.cfg.History.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	r, err := recorder.NewSQLiteRecorder(ctx, a.cfg.History.SQLitePath)
	if err != nil {
		log.Warnf("init history recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return r
}

func (a *app) newPipeline(rec recorder.Recorder) *pipeline.Pipeline {
	c := a.cfg
	fetcher := collector.NewFetcher(c.Source.URL, c.Source.Proxy, c.Source.Timeout, c.Source.UserAgent)
	log.Infof("data source: %s (%s)", c.Source.URL, fetcher.Name())
	return pipeline.New(c.PipelineOptions(), fetcher, pipeline.NewFileSink(c.Progress.LogPath), rec)
}

func (a *app) newNotifier() *notifier.TelegramNotifier {
	if !a.cfg.TelegramEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Source.Proxy)
}

// Package scheduler triggers pipeline runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"bankcap/internal/notifier"
	"bankcap/internal/pipeline"
	"bankcap/internal/recorder"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Notifier delivers run summaries.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron task and guards against overlapping runs.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier Notifier // nil disables notifications
	Recorder recorder.Recorder
	Table    string
	Ctx      context.Context

	running sync.Mutex
	async   sync.WaitGroup // runs started by RunAsync
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, n Notifier, rec recorder.Recorder, table string) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Notifier: n,
		Recorder: rec,
		Table:    table,
		Ctx:      ctx,
	}
}

// Register adds the pipeline run task at spec (six fields, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks to finish,
// including runs started with RunAsync.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	log.Info("scheduler stopped")
}

// RunNow executes one run unless another is in progress. It reports whether a run happened.
func (s *Scheduler) RunNow() bool {
	if !s.running.TryLock() {
		log.Warn("previous run still in progress, skipping")
		return false
	}
	defer s.running.Unlock()

	log.Info("running scheduled pipeline")
	rep, err := s.Runner.Run(s.Ctx)
	if err != nil {
		log.Errorf("scheduled run: %v", err)
	}
	if rep != nil {
		s.trySend(notifier.FormatRunSummary(rep, s.Table))
	}
	return true
}

// RunAsync starts RunNow in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		s.RunNow()
	}()
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		s.RunAsync()
		return "Run started."
	case "/last":
		runs, err := s.Recorder.ListRuns(s.Ctx, 1)
		if err != nil {
			log.Errorf("list runs: %v", err)
			return "History unavailable."
		}
		return notifier.FormatLastRun(runs)
	default:
		return "Available commands:\n• /run\n• /last"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
	}
}

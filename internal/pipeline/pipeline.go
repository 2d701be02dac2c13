// Package pipeline runs the extract, transform, load and query stages in order
// and reports each transition to a progress sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bankcap/internal/apperrors"
	"bankcap/internal/collector"
	"bankcap/internal/converter"
	"bankcap/internal/database"
	"bankcap/internal/extractor"
	"bankcap/internal/model"
	"bankcap/internal/persist"
	"bankcap/internal/query"
	"bankcap/internal/recorder"
)

// NamedQuery is a query run after loading.
type NamedQuery struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
}

// Options configures one pipeline.
type Options struct {
	SourceURL    string
	Columns      [2]string
	Policy       extractor.ParsePolicy
	RatesPath    string
	Currencies   []string
	ColumnFormat string
	CSVPath      string
	Driver       string
	DSN          string
	Table        string
	Queries      []NamedQuery
}

// Report describes the outcome of one run.
type Report struct {
	RunID      string
	State      State
	Records    *model.RecordSet
	Missing    int
	Skipped    int
	Results    []*model.QueryResult
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// FailedStage returns the stage that aborted the run, or "" on success.
func (r *Report) FailedStage() string {
	var se *StageError
	if errors.As(r.Err, &se) {
		return se.Stage
	}
	return ""
}

// Pipeline sequences the stages of one ETL run.
type Pipeline struct {
	opts     Options
	fetcher  collector.Fetcher
	sink     Sink
	recorder recorder.Recorder
	now      func() time.Time
}

// New creates a Pipeline. A nil sink keeps milestones in memory; a nil recorder keeps no history.
func New(opts Options, fetcher collector.Fetcher, sink Sink, rec recorder.Recorder) *Pipeline {
	if sink == nil {
		sink = &MemorySink{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{opts: opts, fetcher: fetcher, sink: sink, recorder: rec, now: time.Now}
}

// run carries the mutable state of one Run call.
type run struct {
	p      *Pipeline
	report *Report
	logger *log.Entry
}

func (r *run) milestone(msg string) {
	if err := r.p.sink.Milestone(r.p.now(), msg); err != nil {
		r.logger.Warnf("progress sink: %v", err)
	}
}

func (r *run) advance(to State, msg string) {
	r.report.State = to
	r.logger.WithField("state", to).Info(msg)
	r.milestone(msg)
}

func (r *run) fail(stage string, err error) error {
	se := &StageError{Stage: stage, Err: err}
	r.report.State = Failed
	r.report.Err = se
	r.logger.WithFields(log.Fields{"stage": stage, "kind": apperrors.KindName(err)}).Errorf("run failed: %v", err)
	r.milestone(se.Error())
	return se
}

// Run executes one full pass. On failure the returned error is a *StageError and
// the report is still returned with State Failed.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	r := &run{
		p:      p,
		report: &Report{RunID: uuid.NewString(), State: Init, StartedAt: p.now()},
	}
	r.logger = log.WithFields(log.Fields{"run_id": r.report.RunID, "table": p.opts.Table})

	r.milestone("Preliminaries complete. Initiating ETL process")
	err := p.stages(ctx, r)
	r.report.FinishedAt = p.now()
	p.record(ctx, r)
	return r.report, err
}

func (p *Pipeline) stages(ctx context.Context, r *run) error {
	o := p.opts

	c := collector.NewCollector(p.fetcher, o.SourceURL, o.Columns, o.Policy)
	extracted, err := c.Collect(ctx)
	if err != nil {
		return r.fail(StageExtract, err)
	}
	r.report.Records = extracted.Records
	r.report.Missing = extracted.Missing
	r.report.Skipped = extracted.Skipped
	if extracted.Missing > 0 || extracted.Skipped > 0 {
		r.logger.Warnf("extracted with %d missing values and %d skipped rows", extracted.Missing, extracted.Skipped)
	}
	r.advance(Extracted, "Data extraction complete. Initiating Transformation process")

	rates, err := converter.LoadRates(o.RatesPath)
	if err != nil {
		return r.fail(StageTransform, err)
	}
	if o.ColumnFormat != "" {
		extracted.Records.ColumnFormat = o.ColumnFormat
	}
	converted, err := converter.Convert(extracted.Records, rates, o.Currencies)
	if err != nil {
		return r.fail(StageTransform, err)
	}
	r.report.Records = converted
	r.advance(Transformed, "Data transformation complete. Initiating Loading process")

	if err := persist.SaveFile(converted, o.CSVPath); err != nil {
		return r.fail(StageLoad, err)
	}
	db, err := database.Open(ctx, o.Driver, o.DSN)
	if err != nil {
		return r.fail(StageLoad, err)
	}
	closed := false
	closeDB := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			r.logger.Warnf("close database: %v", err)
		}
	}
	defer closeDB()

	if err := persist.SaveTable(ctx, db, converted, o.Table); err != nil {
		return r.fail(StageLoad, err)
	}
	r.advance(Persisted, fmt.Sprintf("Data saved to CSV file and loaded to Database as table %s. Executing queries", o.Table))

	for _, q := range o.Queries {
		res, err := query.Run(ctx, db, q.SQL)
		if err != nil {
			return r.fail(StageQuery, fmt.Errorf("%s: %w", q.Name, err))
		}
		res.Name = q.Name
		r.report.Results = append(r.report.Results, res)
	}
	r.advance(Queried, fmt.Sprintf("Executed %d queries", len(o.Queries)))

	closeDB()
	r.advance(Done, "Process Complete. Server Connection closed")
	return nil
}

// record hands the finished run to the history recorder. Errors are logged only.
func (p *Pipeline) record(ctx context.Context, r *run) {
	rep := r.report
	rec := &recorder.RunRecord{
		RunID:      rep.RunID,
		State:      rep.State.String(),
		Stage:      rep.FailedStage(),
		Source:     p.fetcher.Name(),
		Table:      p.opts.Table,
		Queries:    len(rep.Results),
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
	}
	if rep.Err != nil {
		rec.ErrorKind = apperrors.KindName(rep.Err)
		rec.Error = rep.Err.Error()
	}
	if rep.Records != nil {
		rec.Records = rep.Records.Len()
		for _, b := range rep.Records.Records {
			rec.Banks = append(rec.Banks, recorder.BankSnapshot{Name: b.Name, MarketCapUSD: b.MarketCapUSD})
		}
	}
	if err := p.recorder.RecordRun(ctx, rec); err != nil {
		r.logger.Warnf("record run history: %v", err)
	}
}

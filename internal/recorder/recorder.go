// Package recorder keeps a history of pipeline runs for later inspection.
package recorder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord is the summary of one pipeline run.
type RunRecord struct {
	RunID      string
	State      string // final pipeline state, "Done" or "Failed"
	Stage      string // failing stage, empty on success
	ErrorKind  string
	Error      string
	Source     string
	Table      string
	Records    int
	Queries    int
	StartedAt  time.Time
	FinishedAt time.Time
	Banks      []BankSnapshot
}

// BankSnapshot is one bank's USD market cap as seen by a run.
type BankSnapshot struct {
	Name         string
	MarketCapUSD decimal.NullDecimal
}

// Recorder persists run history.
type Recorder interface {
	RecordRun(ctx context.Context, run *RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}

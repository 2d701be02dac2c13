package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bankcap/internal/apperrors"
	"bankcap/internal/database"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *database.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the history database and runs migrations.
func NewSQLiteRecorder(ctx context.Context, dbPath string) (*SQLiteRecorder, error) {
	db, err := database.Open(ctx, "sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	// WAL lets `bankcap history` read while a scheduled run writes.
	if _, err := db.Conn().ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", apperrors.ErrStorage, err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("history recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			state       TEXT NOT NULL,
			stage       TEXT,
			error_kind  TEXT,
			error       TEXT,
			source      TEXT,
			table_name  TEXT,
			records     INTEGER,
			queries     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS bank_snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES runs(run_id),
			position       INTEGER NOT NULL,
			name           TEXT NOT NULL,
			mc_usd_billion TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON bank_snapshots(run_id)`,
	}

	for i, s := range stmts {
		if _, err := r.db.Conn().ExecContext(ctx, s); err != nil {
			return fmt.Errorf("%w: migration %d: %v", apperrors.ErrStorage, i, err)
		}
	}
	return nil
}

// RecordRun stores the run summary and its bank snapshot in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperrors.ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, started_at, finished_at, state, stage, error_kind, error, source, table_name, records, queries)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.StartedAt.UnixMicro(), run.FinishedAt.UnixMicro(),
		run.State, run.Stage, run.ErrorKind, run.Error,
		run.Source, run.Table, run.Records, run.Queries,
	)
	if err != nil {
		return fmt.Errorf("%w: insert run: %v", apperrors.ErrStorage, err)
	}

	for i, b := range run.Banks {
		var usd any
		if b.MarketCapUSD.Valid {
			usd = b.MarketCapUSD.Decimal.String()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO bank_snapshots
			(run_id, position, name, mc_usd_billion) VALUES (?,?,?,?)`,
			run.RunID, i, b.Name, usd,
		); err != nil {
			return fmt.Errorf("%w: insert snapshot: %v", apperrors.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. Bank snapshots are not loaded.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Conn().QueryContext(ctx, `SELECT
		run_id, started_at, finished_at, state, stage, error_kind, error, source, table_name, records, queries
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run             RunRecord
			started, finish int64
		)
		if err := rows.Scan(&run.RunID, &started, &finish, &run.State, &run.Stage, &run.ErrorKind,
			&run.Error, &run.Source, &run.Table, &run.Records, &run.Queries); err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", apperrors.ErrStorage, err)
		}
		run.StartedAt = time.UnixMicro(started)
		run.FinishedAt = time.UnixMicro(finish)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return runs, nil
}

// Snapshot returns the banks recorded for a run, in extraction order.
func (r *SQLiteRecorder) Snapshot(ctx context.Context, runID string) ([]BankSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Conn().QueryContext(ctx,
		`SELECT name, mc_usd_billion FROM bank_snapshots WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []BankSnapshot
	for rows.Next() {
		var (
			b   BankSnapshot
			usd *string
		)
		if err := rows.Scan(&b.Name, &usd); err != nil {
			return nil, fmt.Errorf("%w: scan snapshot: %v", apperrors.ErrStorage, err)
		}
		if usd != nil {
			d, err := decimal.NewFromString(*usd)
			if err != nil {
				return nil, fmt.Errorf("%w: snapshot value %q: %v", apperrors.ErrStorage, *usd, err)
			}
			b.MarketCapUSD = decimal.NewNullDecimal(d)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing history recorder")
	return r.db.Close()
}

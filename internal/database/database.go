// Package database opens the relational store the pipeline loads into and queries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"bankcap/internal/apperrors"
)

// Dialect captures the few SQL differences between supported stores.
type Dialect struct {
	Name       string // config name, e.g. "sqlite"
	DriverName string // database/sql driver name
	TextType   string
	RealType   string
	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder func(n int) string
	// Prepare adjusts the DSN before opening, e.g. creating parent directories for file stores.
	Prepare func(dsn string) (string, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// Register makes a dialect available to Open. Called from init() in each driver file.
func Register(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name] = d
}

// Lookup returns a registered dialect.
func Lookup(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: unknown database driver %q", apperrors.ErrStorage, name)
	}
	return d, nil
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// DB is an open connection to the store.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the store and verifies the connection with a ping.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	d, err := Lookup(driver)
	if err != nil {
		return nil, err
	}
	if d.Prepare != nil {
		if dsn, err = d.Prepare(dsn); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
		}
	}
	conn, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrStorage, driver, err)
	}
	// One run, one connection.
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: connect %s: %v", apperrors.ErrStorage, driver, err)
	}
	log.WithFields(log.Fields{"driver": driver}).Debug("database opened")
	return &DB{conn: conn, dialect: d}, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB { return db.conn }

// Dialect returns the store dialect.
func (db *DB) Dialect() Dialect { return db.dialect }

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a bare table name.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// QuoteIdent quotes a column or table identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ensureDir creates the parent directory of a file DSN.
func ensureDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		return nil
	}
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}

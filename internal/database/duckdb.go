//go:build duckdb

package database

import (
	_ "github.com/duckdb/duckdb-go/v2"
)

// DuckDB needs cgo, so it is only linked into builds tagged "duckdb".
func init() {
	Register(Dialect{
		Name:        "duckdb",
		DriverName:  "duckdb",
		TextType:    "VARCHAR",
		RealType:    "DOUBLE",
		Placeholder: questionMark,
		Prepare: func(dsn string) (string, error) {
			return dsn, ensureDir(dsn)
		},
	})
}

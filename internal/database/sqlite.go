package database

import (
	_ "modernc.org/sqlite"
)

func init() {
	Register(Dialect{
		Name:        "sqlite",
		DriverName:  "sqlite",
		TextType:    "TEXT",
		RealType:    "REAL",
		Placeholder: questionMark,
		Prepare: func(dsn string) (string, error) {
			return dsn, ensureDir(dsn)
		},
	})
}

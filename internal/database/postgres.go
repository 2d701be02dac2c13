package database

import (
	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register(Dialect{
		Name:        "postgres",
		DriverName:  "pgx",
		TextType:    "TEXT",
		RealType:    "DOUBLE PRECISION",
		Placeholder: dollar,
	})
}

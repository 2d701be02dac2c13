package persist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bankcap/internal/apperrors"
	"bankcap/internal/database"
	"bankcap/internal/model"
)

// SaveTable replaces table with the contents of rs: the table is dropped, recreated and filled
// inside one transaction, so the stored rows always equal the latest RecordSet.
func SaveTable(ctx context.Context, db *database.DB, rs *model.RecordSet, table string) error {
	if !database.ValidIdentifier(table) {
		return fmt.Errorf("%w: invalid table name %q", apperrors.ErrStorage, table)
	}
	d := db.Dialect()
	header := rs.Header()

	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		typ := d.RealType
		if i == 0 {
			typ = d.TextType
		}
		cols[i] = database.QuoteIdent(h) + " " + typ
		marks[i] = d.Placeholder(i + 1)
	}
	quoted := database.QuoteIdent(table)

	tx, err := db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperrors.ErrStorage, err)
	}
	defer tx.Rollback()

	stmts := []string{
		"DROP TABLE IF EXISTS " + quoted,
		fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(cols, ", ")),
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("%w: exec %q: %v", apperrors.ErrStorage, s, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", apperrors.ErrStorage, err)
	}
	defer insert.Close()

	for i, rec := range rs.Records {
		args := []any{rec.Name}
		for _, v := range rs.Values(i) {
			if v.Valid {
				args = append(args, v.Decimal.InexactFloat64())
			} else {
				args = append(args, sql.NullFloat64{})
			}
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%w: insert row %d (%s): %v", apperrors.ErrStorage, i, rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// Package query runs read-only statements against the pipeline's store.
package query

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"bankcap/internal/apperrors"
	"bankcap/internal/database"
	"bankcap/internal/model"
)

var readOnly = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"VALUES":  true,
	"EXPLAIN": true,
	"PRAGMA":  true,
}

// Run executes stmt and returns every row in the order the store produced them.
// Only statements that start with a read keyword are accepted.
func Run(ctx context.Context, db *database.DB, stmt string) (*model.QueryResult, error) {
	if kw := firstKeyword(stmt); !readOnly[kw] {
		return nil, fmt.Errorf("%w: only read statements are allowed, got %q", apperrors.ErrQuery, kw)
	}

	rows, err := db.Conn().QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQuery, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %v", apperrors.ErrQuery, err)
	}
	res := &model.QueryResult{SQL: stmt, Columns: cols, Rows: [][]any{}}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", apperrors.ErrQuery, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQuery, err)
	}
	return res, nil
}

// firstKeyword returns the upper-cased first word of stmt, skipping whitespace,
// opening parentheses and SQL comments.
func firstKeyword(stmt string) string {
	s := stmt
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}

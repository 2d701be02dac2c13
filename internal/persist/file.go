// Package persist writes a RecordSet to a CSV file and to a database table.
package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"bankcap/internal/apperrors"
	"bankcap/internal/model"
)

// SaveFile writes rs to path as CSV, replacing any existing file.
// Numeric fields are rendered with two decimal places; missing values are left empty.
func SaveFile(rs *model.RecordSet, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create output directory: %v", apperrors.ErrIO, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", apperrors.ErrIO, path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rs.Header()); err != nil {
		f.Close()
		return fmt.Errorf("%w: write header: %v", apperrors.ErrIO, err)
	}
	for i, rec := range rs.Records {
		row := []string{rec.Name}
		for _, v := range rs.Values(i) {
			row = append(row, formatValue(v))
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("%w: write row %d: %v", apperrors.ErrIO, i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: flush %s: %v", apperrors.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", apperrors.ErrIO, path, err)
	}
	return nil
}

func formatValue(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}

// ReadFile parses a file written by SaveFile back into a RecordSet.
// Derived columns are matched against columnFormat, the same "%s" pattern the file was written with;
// an empty format means model.DefaultColumnFormat.
func ReadFile(path, columnFormat string) (*model.RecordSet, error) {
	if columnFormat == "" {
		columnFormat = model.DefaultColumnFormat
	}
	prefix, suffix, ok := strings.Cut(columnFormat, "%s")
	if !ok || strings.Contains(suffix, "%s") {
		return nil, fmt.Errorf("%w: column format %q must contain %%s exactly once", apperrors.ErrConfig, columnFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", apperrors.ErrIO, path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", apperrors.ErrParse, path, err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, fmt.Errorf("%w: %s has no header", apperrors.ErrParse, path)
	}

	header := records[0]
	rs := model.NewRecordSet(header[0], header[1])
	rs.ColumnFormat = columnFormat
	for _, col := range header[2:] {
		code, ok := currencyFromColumn(col, prefix, suffix)
		if !ok {
			return nil, fmt.Errorf("%w: unrecognised column %q", apperrors.ErrParse, col)
		}
		rs.Currencies = append(rs.Currencies, code)
	}

	for n, row := range records[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", apperrors.ErrParse, n+2, len(row), len(header))
		}
		vals := make([]decimal.NullDecimal, len(row)-1)
		for j, s := range row[1:] {
			if s == "" {
				continue
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", apperrors.ErrParse, n+2, s)
			}
			vals[j] = decimal.NewNullDecimal(d)
		}
		rec := model.EnrichedBankRecord{BankRecord: model.BankRecord{Name: row[0], MarketCapUSD: vals[0]}}
		for j, code := range rs.Currencies {
			rec.Converted = append(rec.Converted, model.Amount{Currency: code, Value: vals[j+1]})
		}
		rs.Records = append(rs.Records, rec)
	}
	return rs, nil
}

func currencyFromColumn(col, prefix, suffix string) (string, bool) {
	if !strings.HasPrefix(col, prefix) || !strings.HasSuffix(col, suffix) || len(col) <= len(prefix)+len(suffix) {
		return "", false
	}
	return col[len(prefix) : len(col)-len(suffix)], true
}

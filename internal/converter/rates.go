package converter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"bankcap/internal/apperrors"
	"bankcap/internal/model"
)

// LoadRates reads a rate table CSV with a header row holding "Currency" and "Rate" columns.
func LoadRates(path string) (model.RateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("%w: open rate file: %v", apperrors.ErrIO, err)
	}
	defer f.Close()
	return ParseRates(f)
}

// ParseRates parses a rate table. Column order is free and extra columns are ignored.
// Codes are trimmed and upper-cased; every rate must be a positive decimal and codes must be unique.
func ParseRates(r io.Reader) (model.RateTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return model.RateTable{}, fmt.Errorf("%w: parse rate csv: %v", apperrors.ErrInvalidRate, err)
	}
	if len(records) == 0 {
		return model.RateTable{}, fmt.Errorf("%w: empty rate file", apperrors.ErrInvalidRate)
	}

	codeIdx, rateIdx := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "currency":
			codeIdx = i
		case "rate":
			rateIdx = i
		}
	}
	if codeIdx < 0 || rateIdx < 0 {
		return model.RateTable{}, fmt.Errorf("%w: header must contain Currency and Rate, got %v", apperrors.ErrInvalidRate, records[0])
	}

	var codes []string
	var rates []decimal.Decimal
	seen := make(map[string]bool)
	for n, rec := range records[1:] {
		line := n + 2
		if len(rec) <= codeIdx || len(rec) <= rateIdx {
			return model.RateTable{}, fmt.Errorf("%w: line %d: too few fields", apperrors.ErrInvalidRate, line)
		}
		code := strings.ToUpper(strings.TrimSpace(rec[codeIdx]))
		if code == "" {
			return model.RateTable{}, fmt.Errorf("%w: line %d: empty currency code", apperrors.ErrInvalidRate, line)
		}
		if seen[code] {
			return model.RateTable{}, fmt.Errorf("%w: line %d: duplicate currency %s", apperrors.ErrInvalidRate, line, code)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rec[rateIdx]))
		if err != nil {
			return model.RateTable{}, fmt.Errorf("%w: line %d: rate %q for %s", apperrors.ErrInvalidRate, line, rec[rateIdx], code)
		}
		if !rate.IsPositive() {
			return model.RateTable{}, fmt.Errorf("%w: line %d: rate for %s must be positive, got %s", apperrors.ErrInvalidRate, line, code, rate)
		}
		seen[code] = true
		codes = append(codes, code)
		rates = append(rates, rate)
	}
	return model.NewRateTable(codes, rates), nil
}

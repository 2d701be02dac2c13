// Package extractor turns the bank listing markup into ordered bank records.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bankcap/internal/apperrors"
	"bankcap/internal/model"
)

// ParsePolicy selects what happens when a value cell does not hold a number.
type ParsePolicy string

const (
	// Strict fails the extraction with apperrors.ErrParse.
	Strict ParsePolicy = "strict"
	// Lenient keeps the row with a missing value.
	Lenient ParsePolicy = "lenient"
)

// ParsePolicyFromString maps a config value to a ParsePolicy. Empty means Strict.
func ParsePolicyFromString(s string) (ParsePolicy, error) {
	switch ParsePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Strict:
		return Strict, nil
	case Lenient:
		return Lenient, nil
	default:
		return "", fmt.Errorf("%w: unknown parse policy %q", apperrors.ErrConfig, s)
	}
}

// Result is the outcome of an extraction.
type Result struct {
	Records *model.RecordSet
	Missing int // rows kept with a missing value (lenient only)
	Skipped int // rows dropped for an empty name (lenient only)
}

// Extract scans markup and returns the records of the first <tbody> element as written in the source.
// Every row inside that body qualifies when it has more than two cells and its second cell holds a link;
// the name comes from the second cell and the USD value from the third. Rows and cells are found at
// any depth, so rows of a table nested in the body count too.
func Extract(markup string, columns [2]string, policy ParsePolicy) (*Result, error) {
	rows, err := scanFirstBody(markup)
	if err != nil {
		return nil, err
	}

	res := &Result{Records: model.NewRecordSet(columns[0], columns[1])}
	for i, row := range rows {
		if len(row.cells) <= 2 || !row.nameLinked {
			continue
		}
		name := strings.TrimSpace(row.cells[1])
		if name == "" {
			if policy == Lenient {
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("%w: row %d: empty name", apperrors.ErrParse, i)
		}
		value, err := parseValue(row.cells[2])
		if err != nil {
			if policy != Lenient || errors.Is(err, errNegative) {
				return nil, fmt.Errorf("%w: row %d (%s): %v", apperrors.ErrParse, i, name, err)
			}
			res.Missing++
		}
		res.Records.Append(model.BankRecord{Name: name, MarketCapUSD: value})
	}
	return res, nil
}

// errNegative is never tolerated, whatever the policy.
var errNegative = errors.New("negative value")

func parseValue(cell string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.NullDecimal{}, fmt.Errorf("empty value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("value %q is not a decimal number", s)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w %q", errNegative, s)
	}
	return decimal.NewNullDecimal(d), nil
}

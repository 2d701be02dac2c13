// Package converter derives the per-currency market cap columns from the USD value.
package converter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bankcap/internal/apperrors"
	"bankcap/internal/model"
)

// Places is the number of decimal places every converted value is rounded to.
const Places = 2

// Convert returns a copy of rs with one converted column per currency in currencies.
// Values are usd*rate rounded half away from zero to two places; a missing USD value stays missing.
// Every rate in the table must be positive and every requested currency must be present.
func Convert(rs *model.RecordSet, rates model.RateTable, currencies []string) (*model.RecordSet, error) {
	for _, code := range rates.Codes() {
		r, _ := rates.Rate(code)
		if !r.IsPositive() {
			return nil, fmt.Errorf("%w: rate for %s must be positive, got %s", apperrors.ErrInvalidRate, code, r)
		}
	}
	factors := make([]decimal.Decimal, len(currencies))
	for i, code := range currencies {
		r, ok := rates.Rate(code)
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingRate, code)
		}
		factors[i] = r
	}

	out := &model.RecordSet{
		NameColumn:   rs.NameColumn,
		ValueColumn:  rs.ValueColumn,
		ColumnFormat: rs.ColumnFormat,
		Currencies:   append([]string(nil), currencies...),
		Records:      make([]model.EnrichedBankRecord, len(rs.Records)),
	}
	for i, rec := range rs.Records {
		converted := make([]model.Amount, len(currencies))
		for j, code := range currencies {
			converted[j] = model.Amount{Currency: code}
			if rec.MarketCapUSD.Valid {
				converted[j].Value = decimal.NewNullDecimal(Amount(rec.MarketCapUSD.Decimal, factors[j]))
			}
		}
		out.Records[i] = model.EnrichedBankRecord{BankRecord: rec.BankRecord, Converted: converted}
	}
	return out, nil
}

// Amount converts a single value.
func Amount(usd, rate decimal.Decimal) decimal.Decimal {
	return usd.Mul(rate).Round(Places)
}

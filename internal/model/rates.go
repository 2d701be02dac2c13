package model

import "github.com/shopspring/decimal"

// RateTable maps a currency code to its multiplier against USD. It is immutable once built.
type RateTable struct {
	codes []string
	rates map[string]decimal.Decimal
}

// NewRateTable builds a RateTable from codes and rates given in the same order.
// Later duplicates overwrite earlier ones; callers that care must check beforehand.
func NewRateTable(codes []string, rates []decimal.Decimal) RateTable {
	t := RateTable{rates: make(map[string]decimal.Decimal, len(codes))}
	for i, c := range codes {
		if _, ok := t.rates[c]; !ok {
			t.codes = append(t.codes, c)
		}
		t.rates[c] = rates[i]
	}
	return t
}

// Rate returns the rate for code.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.rates[code]
	return r, ok
}

// Codes returns the currency codes in load order.
func (t RateTable) Codes() []string {
	out := make([]string, len(t.codes))
	copy(out, t.codes)
	return out
}

// Len returns the number of currencies.
func (t RateTable) Len() int { return len(t.codes) }

package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Default column names used for the flat file and the database table.
const (
	DefaultNameColumn   = "Name"
	DefaultValueColumn  = "MC_USD_Billion"
	DefaultColumnFormat = "MC_%s_Billion"
)

// BankRecord is one row of the source listing.
type BankRecord struct {
	Name         string
	MarketCapUSD decimal.NullDecimal // Valid=false means the source cell held no usable value
}

// Amount is a market cap converted into another currency.
type Amount struct {
	Currency string
	Value    decimal.NullDecimal
}

// EnrichedBankRecord is a BankRecord plus its converted values, one per target currency.
type EnrichedBankRecord struct {
	BankRecord
	Converted []Amount
}

// Value returns the converted amount for the given currency code.
func (r EnrichedBankRecord) Value(currency string) (decimal.NullDecimal, bool) {
	for _, a := range r.Converted {
		if a.Currency == currency {
			return a.Value, true
		}
	}
	return decimal.NullDecimal{}, false
}

// RecordSet is the ordered output of one pipeline run.
type RecordSet struct {
	NameColumn   string
	ValueColumn  string
	Currencies   []string // derived currency codes, in column order
	ColumnFormat string   // e.g. "MC_%s_Billion"
	Records      []EnrichedBankRecord
}

// NewRecordSet creates an empty RecordSet with the given name and value columns.
func NewRecordSet(nameColumn, valueColumn string) *RecordSet {
	return &RecordSet{
		NameColumn:   nameColumn,
		ValueColumn:  valueColumn,
		ColumnFormat: DefaultColumnFormat,
		Records:      []EnrichedBankRecord{},
	}
}

// Len returns the number of records.
func (rs *RecordSet) Len() int { return len(rs.Records) }

// Append adds a bank record without converted values.
func (rs *RecordSet) Append(rec BankRecord) {
	rs.Records = append(rs.Records, EnrichedBankRecord{BankRecord: rec})
}

// CurrencyColumn returns the column name for a derived currency.
func (rs *RecordSet) CurrencyColumn(code string) string {
	format := rs.ColumnFormat
	if format == "" {
		format = DefaultColumnFormat
	}
	return fmt.Sprintf(format, code)
}

// Header returns the field names in persisted order.
func (rs *RecordSet) Header() []string {
	h := make([]string, 0, 2+len(rs.Currencies))
	h = append(h, rs.NameColumn, rs.ValueColumn)
	for _, c := range rs.Currencies {
		h = append(h, rs.CurrencyColumn(c))
	}
	return h
}

// Values returns the numeric fields of record i in header order (after the name).
func (rs *RecordSet) Values(i int) []decimal.NullDecimal {
	rec := rs.Records[i]
	vals := make([]decimal.NullDecimal, 0, 1+len(rs.Currencies))
	vals = append(vals, rec.MarketCapUSD)
	for _, c := range rs.Currencies {
		v, _ := rec.Value(c)
		vals = append(vals, v)
	}
	return vals
}

package converter

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcap/internal/apperrors"
	"bankcap/internal/model"
)

var currencies = []string{"GBP", "EUR", "INR"}

func rateTable(t *testing.T, pairs map[string]string) model.RateTable {
	t.Helper()
	var codes []string
	var rates []decimal.Decimal
	for _, c := range []string{"EUR", "GBP", "INR", "JPY"} {
		if v, ok := pairs[c]; ok {
			codes = append(codes, c)
			rates = append(rates, decimal.RequireFromString(v))
		}
	}
	return model.NewRateTable(codes, rates)
}

func recordSet(values ...string) *model.RecordSet {
	rs := model.NewRecordSet(model.DefaultNameColumn, model.DefaultValueColumn)
	for i, v := range values {
		rec := model.BankRecord{Name: string(rune('A' + i))}
		if v != "" {
			rec.MarketCapUSD = decimal.NewNullDecimal(decimal.RequireFromString(v))
		}
		rs.Append(rec)
	}
	return rs
}

func TestConvert_Scenario(t *testing.T) {
	rates := rateTable(t, map[string]string{"GBP": "0.8", "EUR": "0.93", "INR": "82.1"})
	out, err := Convert(recordSet("100.00", "50.5", "200"), rates, currencies)
	require.NoError(t, err)

	want := map[string][]string{
		"GBP": {"80.00", "40.40", "160.00"},
		"EUR": {"93.00", "46.97", "186.00"},
		"INR": {"8210.00", "4146.05", "16420.00"},
	}
	for code, vals := range want {
		for i, v := range vals {
			got, ok := out.Records[i].Value(code)
			require.True(t, ok)
			assert.Equal(t, v, got.Decimal.StringFixed(2), "%s row %d", code, i)
		}
	}
	assert.Equal(t, []string{"Name", "MC_USD_Billion", "MC_GBP_Billion", "MC_EUR_Billion", "MC_INR_Billion"}, out.Header())
}

func TestConvert_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		usd, rate, want string
	}{
		{"0.125", "1", "0.13"},
		{"0.135", "1", "0.14"},
		{"2.675", "1", "2.68"},
		{"1.005", "1", "1.01"},
		{"0.124", "1", "0.12"},
		{"10", "0.0005", "0.01"},
	}
	for _, tt := range tests {
		got := Amount(decimal.RequireFromString(tt.usd), decimal.RequireFromString(tt.rate))
		assert.Equal(t, tt.want, got.StringFixed(2), "%s * %s", tt.usd, tt.rate)
	}
}

// Checks the conversion against integer arithmetic on random cents and four-place rates.
func TestConvert_MatchesIntegerRounding(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 500; n++ {
		cents := rng.Int63n(100_000_00)
		rate4 := rng.Int63n(2_000_000) + 1 // 0.0001 .. 200.0000

		usd := decimal.New(cents, -2)
		rate := decimal.New(rate4, -4)
		rates := model.NewRateTable([]string{"XYZ"}, []decimal.Decimal{rate})

		out, err := Convert(recordSet(usd.String()), rates, []string{"XYZ"})
		require.NoError(t, err)

		product := cents * rate4 // scale 1e-6
		q, rem := product/10_000, product%10_000
		if rem*2 >= 10_000 {
			q++
		}
		got, _ := out.Records[0].Value("XYZ")
		assert.True(t, decimal.New(q, -2).Equal(got.Decimal), "usd=%s rate=%s got=%s", usd, rate, got.Decimal)
	}
}

func TestConvert_MissingRate(t *testing.T) {
	rates := rateTable(t, map[string]string{"GBP": "0.8", "EUR": "0.93"})
	for _, rs := range []*model.RecordSet{recordSet("1"), recordSet()} {
		_, err := Convert(rs, rates, currencies)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrMissingRate)
		assert.Contains(t, err.Error(), "INR")
	}
}

func TestConvert_InvalidRate(t *testing.T) {
	rates := rateTable(t, map[string]string{"GBP": "0.8", "EUR": "0.93", "INR": "82.1", "JPY": "0"})
	_, err := Convert(recordSet("1"), rates, currencies)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRate)
}

func TestConvert_EmptyRecordSet(t *testing.T) {
	rates := rateTable(t, map[string]string{"GBP": "0.8", "EUR": "0.93", "INR": "82.1"})
	out, err := Convert(recordSet(), rates, currencies)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, currencies, out.Currencies)
}

func TestConvert_MissingValueStaysMissing(t *testing.T) {
	rates := rateTable(t, map[string]string{"GBP": "0.8", "EUR": "0.93", "INR": "82.1"})
	in := recordSet("", "10")
	out, err := Convert(in, rates, currencies)
	require.NoError(t, err)
	v, ok := out.Records[0].Value("GBP")
	require.True(t, ok)
	assert.False(t, v.Valid)
	v, _ = out.Records[1].Value("GBP")
	assert.Equal(t, "8.00", v.Decimal.StringFixed(2))
	assert.Empty(t, in.Records[1].Converted, "input must not be mutated")
}

func TestParseRates(t *testing.T) {
	rates, err := ParseRates(strings.NewReader("Currency,Rate\nEUR,0.93\ngbp , 0.8\nINR,82.95\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "GBP", "INR"}, rates.Codes())
	r, ok := rates.Rate("GBP")
	require.True(t, ok)
	assert.Equal(t, "0.8", r.String())

	rates, err = ParseRates(strings.NewReader("Rate,Note,Currency\n0.93,x,EUR\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, rates.Codes())
}

func TestParseRates_Invalid(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"no rate column", "Currency,Value\nEUR,1\n"},
		{"zero rate", "Currency,Rate\nEUR,0\n"},
		{"negative rate", "Currency,Rate\nEUR,-1\n"},
		{"bad number", "Currency,Rate\nEUR,abc\n"},
		{"duplicate", "Currency,Rate\nEUR,1\neur,2\n"},
		{"empty code", "Currency,Rate\n,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRates(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, apperrors.ErrInvalidRate)
		})
	}
}

func TestLoadRates_MissingFile(t *testing.T) {
	_, err := LoadRates(t.TempDir() + "/nope.csv")
	assert.ErrorIs(t, err, apperrors.ErrIO)
}

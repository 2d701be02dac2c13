package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcap/internal/apperrors"
	"bankcap/internal/database"
	"bankcap/internal/model"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func sampleSet() *model.RecordSet {
	rs := model.NewRecordSet(model.DefaultNameColumn, model.DefaultValueColumn)
	rs.Currencies = []string{"GBP", "EUR"}
	rows := []struct {
		name     string
		usd, gbp string
		eur      string
	}{
		{"Bank A", "100", "80", "93"},
		{"Bank B", "50.5", "40.4", "46.97"},
	}
	for _, r := range rows {
		rs.Records = append(rs.Records, model.EnrichedBankRecord{
			BankRecord: model.BankRecord{Name: r.name, MarketCapUSD: dec(r.usd)},
			Converted: []model.Amount{
				{Currency: "GBP", Value: dec(r.gbp)},
				{Currency: "EUR", Value: dec(r.eur)},
			},
		})
	}
	rs.Records = append(rs.Records, model.EnrichedBankRecord{
		BankRecord: model.BankRecord{Name: "Bank C"},
		Converted:  []model.Amount{{Currency: "GBP"}, {Currency: "EUR"}},
	})
	return rs
}

func TestSaveFile_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "banks.csv")
	require.NoError(t, SaveFile(sampleSet(), path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion\n" +
		"Bank A,100.00,80.00,93.00\n" +
		"Bank B,50.50,40.40,46.97\n" +
		"Bank C,,,\n"
	assert.Equal(t, want, string(b))
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.csv")
	in := sampleSet()
	require.NoError(t, SaveFile(in, path))

	out, err := ReadFile(path, "")
	require.NoError(t, err)
	require.Equal(t, in.Len(), out.Len())
	assert.Equal(t, in.Header(), out.Header())
	for i := range in.Records {
		assert.Equal(t, in.Records[i].Name, out.Records[i].Name)
		want, got := in.Values(i), out.Values(i)
		for j := range want {
			assert.Equal(t, want[j].Valid, got[j].Valid)
			if want[j].Valid {
				assert.True(t, want[j].Decimal.Equal(got[j].Decimal), "row %d col %d", i, j)
			}
		}
	}
}

func TestSaveFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is much longer than the new file\n\n\n\n\n\n"), 0644))

	require.NoError(t, SaveFile(model.NewRecordSet("Name", "MC_USD_Billion"), path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name,MC_USD_Billion\n", string(b))
}

func TestSaveFile_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := SaveFile(sampleSet(), filepath.Join(blocker, "banks.csv"))
	assert.ErrorIs(t, err, apperrors.ErrIO)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), "")
	assert.ErrorIs(t, err, apperrors.ErrIO)
}

func TestReadFile_CustomColumnFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.csv")
	in := sampleSet()
	in.ColumnFormat = "%s_bn"
	require.NoError(t, SaveFile(in, path))

	out, err := ReadFile(path, "%s_bn")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "MC_USD_Billion", "GBP_bn", "EUR_bn"}, out.Header())
	assert.Equal(t, in.Currencies, out.Currencies)
	assert.Equal(t, "%s_bn", out.ColumnFormat)

	_, err = ReadFile(path, "")
	assert.ErrorIs(t, err, apperrors.ErrParse)

	_, err = ReadFile(path, "bn")
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "banks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveTable_ReplacesContents(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	rs := sampleSet()

	require.NoError(t, SaveTable(ctx, db, rs, "Largest_banks"))
	require.NoError(t, SaveTable(ctx, db, rs, "Largest_banks"))

	var n int
	require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM Largest_banks`).Scan(&n))
	assert.Equal(t, 3, n)

	var eur float64
	require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT MC_EUR_Billion FROM Largest_banks WHERE Name = ?`, "Bank B").Scan(&eur))
	assert.InDelta(t, 46.97, eur, 1e-9)

	var missing *float64
	require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT MC_USD_Billion FROM Largest_banks WHERE Name = ?`, "Bank C").Scan(&missing))
	assert.Nil(t, missing)
}

func TestSaveTable_Empty(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, SaveTable(ctx, db, sampleSet(), "Largest_banks"))
	require.NoError(t, SaveTable(ctx, db, model.NewRecordSet("Name", "MC_USD_Billion"), "Largest_banks"))

	var n int
	require.NoError(t, db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM Largest_banks`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSaveTable_InvalidName(t *testing.T) {
	db := openDB(t)
	err := SaveTable(context.Background(), db, sampleSet(), "banks; DROP TABLE x")
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

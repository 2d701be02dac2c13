package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcap/internal/apperrors"
)

var columns = [2]string{"Name", "MC_USD_Billion"}

const listing = `<html><body>
<table>
<tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap (US$ billion)</th></tr>
<tr><td>1</td><td><span class="flagicon"><img alt="us"/></span> <a href="/wiki/JPM">JPMorgan Chase</a></td><td>432.92
</td></tr>
<tr><td>2</td><td><a href="/wiki/BoA">Bank of America</a></td><td>231.52</td></tr>
<tr><td>3</td><td>No link bank</td><td>100.00</td></tr>
<tr><td>4</td><td><a href="/wiki/ICBC">Industrial and Commercial Bank of China</a></td><td>194.56</td></tr>
<tr><td colspan="3">Footnote <a href="#n1">[1]</a></td></tr>
</tbody>
</table>
<table><tbody><tr><td>9</td><td><a href="/x">Second table bank</a></td><td>1.00</td></tr></tbody></table>
</body></html>`

func TestExtract_QualifyingRowsInOrder(t *testing.T) {
	res, err := Extract(listing, columns, Strict)
	require.NoError(t, err)

	rs := res.Records
	require.Equal(t, 3, rs.Len())
	assert.Equal(t, "JPMorgan Chase", rs.Records[0].Name)
	assert.Equal(t, "432.92", rs.Records[0].MarketCapUSD.Decimal.String())
	assert.Equal(t, "Bank of America", rs.Records[1].Name)
	assert.Equal(t, "Industrial and Commercial Bank of China", rs.Records[2].Name)
	assert.Equal(t, "194.56", rs.Records[2].MarketCapUSD.Decimal.String())
	assert.Equal(t, []string{"Name", "MC_USD_Billion"}, rs.Header())
}

func TestExtract_NoTableBody(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"no table", `<html><body><p>nothing here</p></body></html>`},
		{"table without tbody tag", `<table><tr><td>1</td><td><a href="#">Bank A</a></td><td>10</td></tr></table>`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.markup, columns, Strict)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrStructure)
		})
	}
}

func TestExtract_BodyOutsideTable(t *testing.T) {
	markup := `<tbody><tr><td>1</td><td><a href="#">Bank A</a></td><td>12.5</td></tr></tbody>`
	res, err := Extract(markup, columns, Strict)
	require.NoError(t, err)
	require.Equal(t, 1, res.Records.Len())
	assert.Equal(t, "Bank A", res.Records.Records[0].Name)
	assert.Equal(t, "12.5", res.Records.Records[0].MarketCapUSD.Decimal.String())
}

func TestExtract_NestedTableRows(t *testing.T) {
	markup := `<table><tbody>
<tr><td>1</td><td><a href="#">Outer</a></td><td>10</td></tr>
<tr><td colspan="3"><table><tr><td>2</td><td><a href="#">Inner</a></td><td>20</td></tr></table></td></tr>
<tr><td>3</td><td><a href="#">Last</a></td><td>30</td></tr>
</tbody></table>`
	res, err := Extract(markup, columns, Strict)
	require.NoError(t, err)
	var names []string
	for _, r := range res.Records.Records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Outer", "Inner", "Last"}, names)
	assert.Equal(t, "20", res.Records.Records[1].MarketCapUSD.Decimal.String())
}

func TestExtract_ImpliedEndTags(t *testing.T) {
	markup := `<table><tbody>
<tr><td>1<td><a href="#">AT&amp;T Bank</a><td>5.25
<tr><td>2<td><a href="#">Bank B</a><td>6
</tbody></table>`
	res, err := Extract(markup, columns, Strict)
	require.NoError(t, err)
	require.Equal(t, 2, res.Records.Len())
	assert.Equal(t, "AT&T Bank", res.Records.Records[0].Name)
	assert.Equal(t, "5.25", res.Records.Records[0].MarketCapUSD.Decimal.String())
	assert.Equal(t, "Bank B", res.Records.Records[1].Name)
}

func TestExtract_EmptyTableBodyYieldsEmptySet(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"no cells", `<table><tbody><tr></tr><tr></tr></tbody></table>`},
		{"header only", `<table><tbody><tr><th>a</th><th>b</th><th>c</th></tr></tbody></table>`},
		{"two cells", `<table><tbody><tr><td>1</td><td><a href="#">X</a></td></tr></tbody></table>`},
		{"no anchor", `<table><tbody><tr><td>1</td><td>X</td><td>3</td></tr></tbody></table>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract(tt.markup, columns, Strict)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Records.Len())
			assert.NotNil(t, res.Records.Records)
		})
	}
}

func TestExtract_StrictRejectsBadValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"text", "n/a"},
		{"empty", "  "},
		{"negative", "-3.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markup := `<table><tbody><tr><td>1</td><td><a href="#">Bank A</a></td><td>` + tt.value + `</td></tr></tbody></table>`
			_, err := Extract(markup, columns, Strict)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrParse)
		})
	}
}

func TestExtract_NegativeValueRejectedUnderBothPolicies(t *testing.T) {
	markup := `<table><tbody><tr><td>1</td><td><a href="#">Bank A</a></td><td>-3.5</td></tr></tbody></table>`
	for _, policy := range []ParsePolicy{Strict, Lenient} {
		t.Run(string(policy), func(t *testing.T) {
			res, err := Extract(markup, columns, policy)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrParse)
			assert.Nil(t, res)
		})
	}
}

func TestExtract_LenientKeepsMissingValue(t *testing.T) {
	markup := `<table><tbody>
<tr><td>1</td><td><a href="#">Bank A</a></td><td>n/a</td></tr>
<tr><td>2</td><td><a href="#">Bank B</a></td><td>50.5</td></tr>
<tr><td>3</td><td><a href="#"> </a></td><td>7</td></tr>
</tbody></table>`
	res, err := Extract(markup, columns, Lenient)
	require.NoError(t, err)
	require.Equal(t, 2, res.Records.Len())
	assert.False(t, res.Records.Records[0].MarketCapUSD.Valid)
	assert.True(t, res.Records.Records[1].MarketCapUSD.Valid)
	assert.Equal(t, 1, res.Missing)
	assert.Equal(t, 1, res.Skipped)
}

func TestExtract_DuplicateNamesKept(t *testing.T) {
	markup := `<table><tbody>
<tr><td>1</td><td><a href="#">Same</a></td><td>1</td></tr>
<tr><td>2</td><td><a href="#">Same</a></td><td>2</td></tr>
</tbody></table>`
	res, err := Extract(markup, columns, Strict)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records.Len())
}

func TestParsePolicyFromString(t *testing.T) {
	p, err := ParsePolicyFromString("")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParsePolicyFromString(" Lenient ")
	require.NoError(t, err)
	assert.Equal(t, Lenient, p)

	_, err = ParsePolicyFromString("loose")
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

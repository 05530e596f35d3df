package portfolio

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/models"
)

func TestCSV_RoundTripReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)
	_, _ = s.AddHolding(ctx, holding("ETH", "2"))
	_, _ = s.AddHolding(ctx, holding("BTC", "1"))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s.Holdings()))
	assert.Equal(t, "Symbol,Amount\nETH,2\nBTC,1\n", buf.String())

	imported, rejected, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, rejected)

	other := newTestStore(nil)
	_, _ = other.AddHolding(ctx, holding("DOGE", "100"))
	other.ReplaceAllHoldings(ctx, imported)

	got := map[string]string{}
	for _, h := range other.Holdings() {
		got[h.Symbol] = h.Amount.String()
	}
	assert.Equal(t, map[string]string{"BTC": "1", "ETH": "2"}, got)
}

func TestReadCSV_SkipsBadRows(t *testing.T) {
	in := strings.Join([]string{
		"symbol,amount",
		"btc, 1.5",
		"ETH,abc",
		",3",
		"SOL,-2",
		`"BAD,1`,
		"",
		"DOGE,NaN",
		"ADA",
		"XRP,10,extra",
		"btc,2",
	}, "\n")

	holdings, rejected, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, holdings, 2)
	assert.Equal(t, "BTC", holdings[0].Symbol)
	assert.True(t, holdings[0].Amount.Equal(d("2")), "last duplicate wins")
	assert.Equal(t, "XRP", holdings[1].Symbol)

	lines := make([]int, 0, len(rejected))
	for _, r := range rejected {
		lines = append(lines, r.Line)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 8, 9}, lines)
}

func TestReadCSV_NoHeader(t *testing.T) {
	holdings, rejected, err := ReadCSV(strings.NewReader("BTC,1\nETH,2\n"))
	require.NoError(t, err)
	assert.Empty(t, rejected)
	assert.Equal(t, []models.Holding{holding("BTC", "1"), holding("ETH", "2")}, holdings)
}

func TestReadCSV_OversizedLineIsRejected(t *testing.T) {
	in := "BTC,1\n" + strings.Repeat("X", 70000) + ",1\nETH,2\n"

	holdings, rejected, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []models.Holding{holding("BTC", "1"), holding("ETH", "2")}, holdings)
	require.Len(t, rejected, 1)
	assert.Equal(t, 2, rejected[0].Line)
	assert.Equal(t, "line too long", rejected[0].Reason)
	assert.Less(t, len(rejected[0].Raw), 100)
}

func TestReadCSV_HeaderAfterBlankLines(t *testing.T) {
	holdings, rejected, err := ReadCSV(strings.NewReader("\n  \nSymbol,Amount\nBTC,1\n"))
	require.NoError(t, err)
	assert.Empty(t, rejected)
	assert.Equal(t, []models.Holding{holding("BTC", "1")}, holdings)
}

func TestReadCSV_HeaderOnlyOnce(t *testing.T) {
	_, rejected, err := ReadCSV(strings.NewReader("BTC,1\nSymbol,Amount\n"))
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, 2, rejected[0].Line)
}

func TestReadCSV_LastLineWithoutNewline(t *testing.T) {
	holdings, _, err := ReadCSV(strings.NewReader("Symbol,Amount\r\nBTC,1\r\nETH,2"))
	require.NoError(t, err)
	assert.Equal(t, []models.Holding{holding("BTC", "1"), holding("ETH", "2")}, holdings)
}

func TestMergeImport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)
	_, _ = s.AddHolding(ctx, holding("BTC", "1"))
	_, _ = s.AddHolding(ctx, holding("DOGE", "10"))

	imported, _, err := ReadCSV(strings.NewReader("Symbol,Amount\nBTC,3\nSOL,4\n"))
	require.NoError(t, err)
	s.MergeHoldings(ctx, imported)

	got := map[string]string{}
	for _, h := range s.Holdings() {
		got[h.Symbol] = h.Amount.String()
	}
	assert.Equal(t, map[string]string{"BTC": "3", "DOGE": "10", "SOL": "4"}, got)
}

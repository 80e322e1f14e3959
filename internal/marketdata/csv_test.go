package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

func writeCandleCSV(t *testing.T, dir, symbol string, days []time.Time, closes []float64) {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,open,high,low,close,volume\n")
	for i, day := range days {
		c := strconv.FormatFloat(closes[i], 'f', 2, 64)
		b.WriteString(strconv.FormatInt(day.Unix(), 10) + "," + c + "," + c + "," + c + "," + c + ",1000\n")
	}
	path := filepath.Join(dir, sanitizeSymbol(symbol)+".csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func TestCSVProvider_FetchHistory(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
	days := []time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)}
	writeCandleCSV(t, dir, "NSE:NIFTY50-INDEX", days, []float64{100, 101, 102})

	p := NewCSVProvider(dir)
	candles, err := p.FetchHistory(context.Background(), "NSE:NIFTY50-INDEX", base, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[2].Close)
}

func TestCSVProvider_FetchHistoryRangeFilter(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
	days := []time.Time{base, base.AddDate(0, 0, 5), base.AddDate(0, 0, 10)}
	writeCandleCSV(t, dir, "SYM", days, []float64{1, 2, 3})

	p := NewCSVProvider(dir)
	candles, err := p.FetchHistory(context.Background(), "SYM", base, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 2.0, candles[1].Close)
}

func TestCSVProvider_FetchHistoryExcludesNextMidnight(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
	days := []time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)}
	writeCandleCSV(t, dir, "SYM", days, []float64{1, 2, 3})

	p := NewCSVProvider(dir)

	// The midnight candle one day past the inclusive to-date stays out
	candles, err := p.FetchHistory(context.Background(), "SYM", base, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 2.0, candles[1].Close)
}

func TestCSVProvider_MissingHistoryFileYieldsEmptySeries(t *testing.T) {
	p := NewCSVProvider(t.TempDir())

	candles, err := p.FetchHistory(context.Background(), "ABSENT",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestCSVProvider_FetchOptionChain(t *testing.T) {
	dir := t.TempDir()
	chainCSV := `symbol,option_type,strike_price,ltp,delta
CE21500,CE,21500,180,0.62
PE21200,PE,21200,70,-0.33
XX21000,XX,21000,10,0.1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NSE_NIFTY50-INDEX.chain.csv"), []byte(chainCSV), 0644))

	p := NewCSVProvider(dir)
	chain, err := p.FetchOptionChain(context.Background(), "NSE:NIFTY50-INDEX")
	require.NoError(t, err)

	// Unknown option types are dropped
	require.Len(t, chain.Contracts, 2)
	assert.Equal(t, models.OptionTypeCall, chain.Contracts[0].Type)
	assert.Equal(t, models.OptionTypePut, chain.Contracts[1].Type)
	assert.Equal(t, -0.33, chain.Contracts[1].Delta)
}

func TestCSVProvider_MissingChainFile(t *testing.T) {
	p := NewCSVProvider(t.TempDir())

	_, err := p.FetchOptionChain(context.Background(), "NSE:NIFTY50-INDEX")
	assert.ErrorIs(t, err, errors.ErrChainUnavailable)
}

func TestCSVProvider_FetchDailyClose(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
	writeCandleCSV(t, dir, "OPT", []time.Time{base, base.AddDate(0, 0, 1)}, []float64{12.5, 14})

	p := NewCSVProvider(dir)

	close, err := p.FetchDailyClose(context.Background(), "OPT", base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 14.0, close)

	_, err = p.FetchDailyClose(context.Background(), "OPT", base.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, errors.ErrPriceUnavailable)
}

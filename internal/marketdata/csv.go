package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// CSVProvider implements Provider from CSV files in a directory. It gives
// the engine a deterministic offline data source.
//
// Layout: <symbol>.csv holds the candle series for a symbol, and
// <symbol>.chain.csv holds an option chain snapshot for an underlying.
// Colons and slashes in symbols are replaced with underscores in file
// names.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider reading from the given directory.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

type candleRow struct {
	Timestamp int64   `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

type chainRow struct {
	Symbol      string  `csv:"symbol"`
	OptionType  string  `csv:"option_type"` // "CE" / "PE"
	StrikePrice float64 `csv:"strike_price"`
	LTP         float64 `csv:"ltp"`
	Delta       float64 `csv:"delta"`
}

// FetchHistory reads the symbol's candle file and returns the candles
// within [from, end of to's day). A missing file yields an empty series.
func (p *CSVProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	rows, err := p.readCandles(symbol)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Candle{}, nil
		}
		return nil, errors.NewDataError("history", symbol, "reading candle file", err)
	}

	end := endOfDay(to)
	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		ts := time.Unix(row.Timestamp, 0)
		if ts.Before(from) || !ts.Before(end) {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return candles, nil
}

// FetchOptionChain reads the underlying's chain snapshot file.
func (p *CSVProvider) FetchOptionChain(ctx context.Context, underlying string) (*models.OptionChain, error) {
	path := filepath.Join(p.dir, sanitizeSymbol(underlying)+".chain.csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataError("option_chain", underlying, "opening chain file", errors.ErrChainUnavailable)
	}
	defer file.Close()

	var rows []chainRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.NewDataError("option_chain", underlying, "parsing chain file", errors.ErrChainUnavailable)
	}

	chain := &models.OptionChain{Underlying: underlying}
	for _, row := range rows {
		var typ models.OptionType
		switch row.OptionType {
		case "CE":
			typ = models.OptionTypeCall
		case "PE":
			typ = models.OptionTypePut
		default:
			continue
		}
		chain.Contracts = append(chain.Contracts, models.OptionContract{
			Symbol: row.Symbol,
			Type:   typ,
			Strike: row.StrikePrice,
			LTP:    row.LTP,
			Delta:  row.Delta,
		})
	}
	return chain, nil
}

// FetchDailyClose returns the close of the candle matching the given
// calendar day in the symbol's candle file.
func (p *CSVProvider) FetchDailyClose(ctx context.Context, optionSymbol string, day time.Time) (float64, error) {
	rows, err := p.readCandles(optionSymbol)
	if err != nil {
		return 0, errors.NewDataError("daily_close", optionSymbol, "reading candle file", errors.ErrPriceUnavailable)
	}

	y, m, d := day.Date()
	for _, row := range rows {
		cy, cm, cd := time.Unix(row.Timestamp, 0).Date()
		if cy == y && cm == m && cd == d {
			return row.Close, nil
		}
	}
	return 0, errors.NewDataError("daily_close", optionSymbol, day.Format("2006-01-02"), errors.ErrPriceUnavailable)
}

func (p *CSVProvider) readCandles(symbol string) ([]candleRow, error) {
	path := filepath.Join(p.dir, sanitizeSymbol(symbol)+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []candleRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func sanitizeSymbol(symbol string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_")
	return replacer.Replace(symbol)
}

// endOfDay returns midnight of the day after t, the exclusive upper
// bound for an inclusive to-date. A midnight-stamped candle one day
// past the range must not slip in.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).Add(24 * time.Hour)
}

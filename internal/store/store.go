// Package store provides candle persistence for the market data cache.
package store

import (
	"context"
	"time"

	"options-backtester/internal/models"
)

// CandleStore defines the interface for candle persistence. Backtest run
// results are never persisted; the store exists so multi-year runs do not
// refetch history.
//
// Range records exist because candle presence alone cannot prove
// coverage: a narrower earlier fetch would otherwise be served as the
// full series. SaveRange/HasRange track which [from, to] spans have
// actually been fetched per symbol.
type CandleStore interface {
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	SaveRange(ctx context.Context, symbol string, from, to time.Time) error
	HasRange(ctx context.Context, symbol string, from, to time.Time) (bool, error)
	GetDailyClose(ctx context.Context, symbol string, day time.Time) (float64, error)
	Close() error
}

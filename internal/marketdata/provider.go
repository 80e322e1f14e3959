// Package marketdata provides market data provider interfaces and
// implementations.
package marketdata

import (
	"context"
	"time"

	"options-backtester/internal/models"
)

// Provider defines the interface for historical market data access.
//
// FetchHistory returns an empty slice when no data exists for the range.
// FetchOptionChain returns errors.ErrChainUnavailable when a snapshot
// cannot be obtained. FetchDailyClose returns errors.ErrPriceUnavailable
// when the closing price for the given day cannot be obtained.
type Provider interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	FetchOptionChain(ctx context.Context, underlying string) (*models.OptionChain, error)
	FetchDailyClose(ctx context.Context, optionSymbol string, day time.Time) (float64, error)
}

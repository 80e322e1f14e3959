package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/store"
)

// CachedProvider wraps a Provider with a read-through candle cache.
// Option chain snapshots are never cached: a chain is a point-in-time
// read with no consistency guarantee across days.
type CachedProvider struct {
	inner  Provider
	store  store.CandleStore
	logger zerolog.Logger
}

// NewCachedProvider creates a cached provider.
func NewCachedProvider(inner Provider, candleStore store.CandleStore, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		store:  candleStore,
		logger: logger,
	}
}

// FetchHistory serves candles from the cache when a previously fetched
// range covers [from, to], otherwise fetches from the inner provider and
// stores the result. Cached candles alone are not enough: a narrower
// earlier fetch, or the single-day rows written by FetchDailyClose,
// would serve a truncated series.
func (c *CachedProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	covered, err := c.store.HasRange(ctx, symbol, from, to)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Cache coverage lookup failed")
	}
	if covered {
		cached, err := c.store.GetCandles(ctx, symbol, from, to)
		if err == nil {
			c.logger.Debug().Str("symbol", symbol).Int("candles", len(cached)).Msg("History served from cache")
			return cached, nil
		}
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed")
	}

	candles, err := c.inner.FetchHistory(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(candles) > 0 {
		if err := c.store.SaveCandles(ctx, symbol, candles); err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache candles")
		} else if err := c.store.SaveRange(ctx, symbol, from, to); err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to record cached range")
		}
	}
	return candles, nil
}

// FetchOptionChain passes through to the inner provider.
func (c *CachedProvider) FetchOptionChain(ctx context.Context, underlying string) (*models.OptionChain, error) {
	return c.inner.FetchOptionChain(ctx, underlying)
}

// FetchDailyClose serves the close from the cache when present, otherwise
// fetches the day's candle from the inner provider and stores it.
func (c *CachedProvider) FetchDailyClose(ctx context.Context, optionSymbol string, day time.Time) (float64, error) {
	close, err := c.store.GetDailyClose(ctx, optionSymbol, day)
	if err == nil {
		return close, nil
	}
	if !errors.Is(err, errors.ErrDataNotFound) {
		c.logger.Warn().Err(err).Str("symbol", optionSymbol).Msg("Cache lookup failed")
	}

	close, err = c.inner.FetchDailyClose(ctx, optionSymbol, day)
	if err != nil {
		return 0, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	cacheErr := c.store.SaveCandles(ctx, optionSymbol, []models.Candle{{
		Timestamp: dayStart,
		Open:      close,
		High:      close,
		Low:       close,
		Close:     close,
		Volume:    0,
	}})
	if cacheErr != nil {
		c.logger.Warn().Err(cacheErr).Str("symbol", optionSymbol).Msg("Failed to cache daily close")
	}
	return close, nil
}

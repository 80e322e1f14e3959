// Package backtest implements the simulation engine: the time-stepped
// event loop, the position ledger, option-leg selection, and end-of-day
// settlement.
package backtest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"options-backtester/internal/config"
	"options-backtester/internal/errors"
	"options-backtester/internal/logging"
	"options-backtester/internal/marketdata"
	"options-backtester/internal/performance"
	"options-backtester/internal/strategy"
)

// Engine drives the simulation over a pre-fetched candle series. It is
// strictly sequential: all ledger mutation happens on the caller's
// goroutine at well-defined points in the loop.
type Engine struct {
	cfg      config.BacktestConfig
	provider marketdata.Provider
	ledger   *Ledger

	directional    *strategy.Directional
	nonDirectional *strategy.NonDirectional
	exitRule       strategy.ExitRule

	logger zerolog.Logger
}

// NewEngine creates a simulation engine. All strategy and risk parameters
// come from the config value; nothing is read from ambient process state.
func NewEngine(cfg config.BacktestConfig, provider marketdata.Provider, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:            cfg,
		provider:       provider,
		ledger:         NewLedger(cfg.InitialCapital, cfg.CapitalAllocationFraction),
		directional:    strategy.NewDirectional(cfg.ShortMAPeriod, cfg.LongMAPeriod, cfg.OscillatorPeriod),
		nonDirectional: strategy.NewNonDirectional(cfg.VolatilityThreshold),
		exitRule: strategy.ExitRule{
			StopLossFraction:   cfg.StopLossFraction,
			TakeProfitFraction: cfg.TakeProfitFraction,
		},
		logger: logger,
	}
}

// Ledger exposes the engine's ledger, mainly for inspection after a run.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Run executes the backtest over [from, to] and returns the aggregate
// report. An empty underlying or volatility series is a precondition
// failure: the run aborts before any state mutation and no report is
// produced.
func (e *Engine) Run(ctx context.Context, from, to time.Time) (*performance.Report, error) {
	underlying, err := e.provider.FetchHistory(ctx, e.cfg.UnderlyingSymbol, from, to)
	if err != nil || len(underlying) == 0 {
		return nil, errors.NewDataError("history", e.cfg.UnderlyingSymbol, "no underlying data", errors.ErrEmptySeries)
	}

	volatility, err := e.provider.FetchHistory(ctx, e.cfg.VolatilitySymbol, from, to)
	if err != nil || len(volatility) == 0 {
		return nil, errors.NewDataError("history", e.cfg.VolatilitySymbol, "no volatility data", errors.ErrEmptySeries)
	}

	// Volatility values are looked up by exact timestamp; there is no
	// interpolation for missing steps.
	volByTS := make(map[int64]float64, len(volatility))
	for _, c := range volatility {
		volByTS[c.Timestamp.Unix()] = c.Close
	}

	lookback := e.directional.Lookback()
	var prevDay time.Time

	for i, candle := range underlying {
		if i < lookback {
			continue
		}

		day := dayOf(candle.Timestamp)

		// Settle the previous day's open positions before evaluating new
		// entries on the new day.
		if !prevDay.IsZero() && !day.Equal(prevDay) {
			e.settle(ctx, prevDay)
		}

		if sig := e.directional.CheckEntry(underlying[:i+1]); sig != strategy.SignalNone {
			logging.LogSignal(e.logger, "directional", string(sig), candle.Timestamp)
			e.executeEntry(ctx, sig, candle.Timestamp)
		}

		if vol, ok := volByTS[candle.Timestamp.Unix()]; ok {
			if sig := e.nonDirectional.CheckEntry(vol); sig != strategy.SignalNone {
				logging.LogSignal(e.logger, "non_directional", string(sig), candle.Timestamp)
				e.executeEntry(ctx, sig, candle.Timestamp)
			}
		}

		prevDay = day
	}

	// The final day's positions are settled once after the loop; a
	// non-empty series never leaves a position unsettled.
	if !prevDay.IsZero() {
		e.settle(ctx, prevDay)
	}

	return performance.Summarize(e.ledger.InitialCapital(), e.ledger.Cash(), from, to, e.ledger.History()), nil
}

// dayOf truncates a timestamp to its local calendar date.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

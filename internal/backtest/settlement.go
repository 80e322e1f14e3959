package backtest

import (
	"context"
	"time"

	"options-backtester/internal/logging"
	"options-backtester/internal/models"
	"options-backtester/internal/strategy"
)

// settle runs end-of-day settlement for all open positions on the given
// calendar day: mark every position to its legs' daily closes and close
// the ones whose exit rule fires.
//
// A position whose legs cannot all be priced is skipped whole for the day
// and retried on the next settlement; a multi-leg position is never
// partially settled.
func (e *Engine) settle(ctx context.Context, day time.Time) {
	for _, pos := range e.ledger.OpenPositions() {
		currentNetPremium, ok := e.markPremium(ctx, pos, day)
		if !ok {
			e.logger.Debug().Str("strategy", pos.Strategy).
				Time("day", day).Msg("Leg price unavailable, deferring settlement")
			continue
		}

		pnl := pos.EntryNetPremium - currentNetPremium
		e.ledger.Mark(pos, pnl)

		reason := e.exitRule.Check(pnl, pos.EntryNetPremium)
		if reason == strategy.ExitNone {
			continue
		}

		e.ledger.Close(pos, reason, day)
		logging.LogExit(e.logger, pos.Strategy, string(reason), pnl)
	}
}

// markPremium recomputes the position's current net premium from its legs'
// daily closing prices, using the BUY=positive / SELL=negative convention.
// Returns ok=false when any leg's price is unobtainable.
func (e *Engine) markPremium(ctx context.Context, pos *models.Position, day time.Time) (float64, bool) {
	var current float64
	for _, leg := range pos.Legs {
		close, err := e.provider.FetchDailyClose(ctx, leg.Contract.Symbol, day)
		if err != nil {
			return 0, false
		}
		if leg.Action == models.LegActionSell {
			current -= close
		} else {
			current += close
		}
	}
	return current, true
}

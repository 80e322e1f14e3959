package backtest

import (
	"context"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/logging"
	"options-backtester/internal/models"
	"options-backtester/internal/strategy"
)

// executeEntry attempts one trade for a signal: fetch a fresh chain
// snapshot, resolve legs, and push the position through the ledger's risk
// gate. Every failure path is a skip, never a run abort.
func (e *Engine) executeEntry(ctx context.Context, sig strategy.Signal, at time.Time) {
	chain, err := e.provider.FetchOptionChain(ctx, e.cfg.UnderlyingSymbol)
	if err != nil {
		e.logger.Warn().Err(err).Str("strategy", string(sig)).Msg("Option chain unavailable, skipping trade")
		return
	}

	legs, netPremium, margin, err := e.resolveLegs(sig, chain)
	if err != nil {
		e.logger.Warn().Err(err).Str("strategy", string(sig)).Msg("Could not resolve legs, skipping trade")
		return
	}

	pos := &models.Position{
		Strategy:        string(sig),
		Legs:            legs,
		EntryNetPremium: netPremium,
		MarginRequired:  margin,
		OpenedAt:        at,
	}

	if err := e.ledger.Open(pos); err != nil {
		var riskErr *errors.RiskError
		if errors.As(err, &riskErr) {
			e.logger.Info().Str("strategy", string(sig)).Str("rule", riskErr.Rule).
				Float64("margin", margin).Msg("Risk gate rejected trade")
			return
		}
		e.logger.Error().Err(err).Str("strategy", string(sig)).Msg("Trade entry failed")
		return
	}

	logging.LogEntry(e.logger, string(sig), netPremium, margin)
}

// resolveLegs builds the legs, entry net premium (magnitude of credit
// received), and approximate margin for a strategy from a chain snapshot.
func (e *Engine) resolveLegs(sig strategy.Signal, chain *models.OptionChain) ([]models.Leg, float64, float64, error) {
	switch sig {
	case strategy.SignalBullPutSpread:
		sell, err := SelectContract(chain, e.cfg.SellDelta, models.OptionTypePut)
		if err != nil {
			return nil, 0, 0, err
		}
		buy, err := SelectContract(chain, e.cfg.BuyDelta, models.OptionTypePut)
		if err != nil {
			return nil, 0, 0, err
		}
		legs := []models.Leg{
			{Action: models.LegActionSell, Contract: sell},
			{Action: models.LegActionBuy, Contract: buy},
		}
		netPremium := sell.LTP - buy.LTP
		margin := (sell.Strike - buy.Strike) - netPremium
		return legs, netPremium, margin, nil

	case strategy.SignalBearCallSpread:
		sell, err := SelectContract(chain, e.cfg.SellDelta, models.OptionTypeCall)
		if err != nil {
			return nil, 0, 0, err
		}
		buy, err := SelectContract(chain, e.cfg.BuyDelta, models.OptionTypeCall)
		if err != nil {
			return nil, 0, 0, err
		}
		legs := []models.Leg{
			{Action: models.LegActionSell, Contract: sell},
			{Action: models.LegActionBuy, Contract: buy},
		}
		netPremium := sell.LTP - buy.LTP
		margin := (buy.Strike - sell.Strike) - netPremium
		return legs, netPremium, margin, nil

	case strategy.SignalShortStraddle:
		call, err := SelectContract(chain, e.cfg.StraddleDelta, models.OptionTypeCall)
		if err != nil {
			return nil, 0, 0, err
		}
		put, err := SelectContract(chain, e.cfg.StraddleDelta, models.OptionTypePut)
		if err != nil {
			return nil, 0, 0, err
		}
		legs := []models.Leg{
			{Action: models.LegActionSell, Contract: call},
			{Action: models.LegActionSell, Contract: put},
		}
		netPremium := call.LTP + put.LTP
		// Short straddle margin approximation: a flat rate on the higher
		// strike. A proper SPAN calculation is out of scope.
		maxStrike := call.Strike
		if put.Strike > maxStrike {
			maxStrike = put.Strike
		}
		margin := maxStrike * e.cfg.StraddleMarginRate
		return legs, netPremium, margin, nil

	default:
		return nil, 0, 0, errors.Wrapf(errors.ErrContractNotFound, "unknown strategy %q", sig)
	}
}

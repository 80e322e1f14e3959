// Package strategy implements entry signal generation and the shared
// exit rule.
//
// The two entry generators are independent pure evaluators; the exit rule
// is shared by every supported strategy because all of them are net-credit
// positions. Composition is used instead of a base-strategy type: the exit
// rule is a standalone value, not inherited behavior.
package strategy

import (
	"options-backtester/internal/indicators"
	"options-backtester/internal/models"
)

// Signal identifies a candidate strategy emitted by an entry generator.
type Signal string

const (
	SignalNone           Signal = ""
	SignalBullPutSpread  Signal = "Bull Put Spread"
	SignalBearCallSpread Signal = "Bear Call Spread"
	SignalShortStraddle  Signal = "Short Straddle"
)

// ExitReason identifies why a position should be closed.
type ExitReason string

const (
	ExitNone       ExitReason = ""
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// ExitRule is the shared stop-loss / take-profit rule over an open
// position's P&L relative to the premium received at entry.
type ExitRule struct {
	StopLossFraction   float64
	TakeProfitFraction float64
}

// Check evaluates the exit rule. entryNetPremium is the magnitude of
// premium received at entry.
func (r ExitRule) Check(pnl, entryNetPremium float64) ExitReason {
	if pnl <= -r.StopLossFraction*entryNetPremium {
		return ExitStopLoss
	}
	if pnl >= r.TakeProfitFraction*entryNetPremium {
		return ExitTakeProfit
	}
	return ExitNone
}

// Directional generates signals from a moving-average crossover confirmed
// by the oscillator's position relative to the 50 centerline. The
// centerline is used for momentum confirmation rather than the
// conventional overbought/oversold bands.
type Directional struct {
	shortMA    *indicators.SMA
	longMA     *indicators.SMA
	oscillator *indicators.RSI
}

// NewDirectional creates a directional generator with the given indicator
// periods.
func NewDirectional(shortPeriod, longPeriod, oscillatorPeriod int) *Directional {
	return &Directional{
		shortMA:    indicators.NewSMA(shortPeriod),
		longMA:     indicators.NewSMA(longPeriod),
		oscillator: indicators.NewRSI(oscillatorPeriod),
	}
}

// Lookback returns the longest indicator period required before the
// generator can produce a signal.
func (d *Directional) Lookback() int {
	lookback := d.shortMA.Period()
	if d.longMA.Period() > lookback {
		lookback = d.longMA.Period()
	}
	if d.oscillator.Period() > lookback {
		lookback = d.oscillator.Period()
	}
	return lookback
}

// CheckEntry evaluates the candle prefix and returns a signal when the
// last two moving-average values cross with momentum confirmation.
// Insufficient history yields no signal.
func (d *Directional) CheckEntry(candles []models.Candle) Signal {
	shortMA, err := d.shortMA.Calculate(candles)
	if err != nil {
		return SignalNone
	}
	longMA, err := d.longMA.Calculate(candles)
	if err != nil {
		return SignalNone
	}
	osc, err := d.oscillator.Calculate(candles)
	if err != nil {
		return SignalNone
	}

	n := len(candles)
	if n < 2 {
		return SignalNone
	}

	lastShort, prevShort := shortMA[n-1], shortMA[n-2]
	lastLong, prevLong := longMA[n-1], longMA[n-2]
	lastOsc := osc[n-1]

	// The previous index must also carry a full indicator window, or the
	// comparison would run against a zero placeholder.
	if n-2 < d.longMA.Period()-1 {
		return SignalNone
	}

	if prevShort <= prevLong && lastShort > lastLong && lastOsc > 50 {
		return SignalBullPutSpread
	}
	if prevShort >= prevLong && lastShort < lastLong && lastOsc < 50 {
		return SignalBearCallSpread
	}

	return SignalNone
}

// NonDirectional generates a short-volatility signal when the volatility
// index exceeds a threshold. No history is consulted.
type NonDirectional struct {
	threshold float64
}

// NewNonDirectional creates a non-directional generator with the given
// volatility threshold.
func NewNonDirectional(threshold float64) *NonDirectional {
	return &NonDirectional{threshold: threshold}
}

// CheckEntry evaluates the current volatility-index value.
func (n *NonDirectional) CheckEntry(volatility float64) Signal {
	if volatility > n.threshold {
		return SignalShortStraddle
	}
	return SignalNone
}

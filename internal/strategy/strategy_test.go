package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"options-backtester/internal/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func TestExitRule_Check(t *testing.T) {
	rule := ExitRule{StopLossFraction: 0.2, TakeProfitFraction: 0.8}

	tests := []struct {
		name  string
		pnl   float64
		entry float64
		want  ExitReason
	}{
		{"deep loss", -25, 100, ExitStopLoss},
		{"stop loss boundary inclusive", -20, 100, ExitStopLoss},
		{"small loss holds", -15, 100, ExitNone},
		{"flat holds", 0, 100, ExitNone},
		{"gain below target holds", 79, 100, ExitNone},
		{"take profit boundary inclusive", 80, 100, ExitTakeProfit},
		{"gain above target", 90, 100, ExitTakeProfit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Check(tt.pnl, tt.entry))
		})
	}
}

func TestNonDirectional_CheckEntry(t *testing.T) {
	gen := NewNonDirectional(18)

	assert.Equal(t, SignalShortStraddle, gen.CheckEntry(19))
	assert.Equal(t, SignalNone, gen.CheckEntry(17))
	// Threshold itself does not fire; the comparison is strict
	assert.Equal(t, SignalNone, gen.CheckEntry(18))
}

func TestDirectional_BullishCrossover(t *testing.T) {
	gen := NewDirectional(2, 3, 3)

	// Short MA crosses above long MA on the last candle while the
	// oscillator sits above the centerline.
	sig := gen.CheckEntry(candlesFromCloses(3.5, 2, 3, 4))
	assert.Equal(t, SignalBullPutSpread, sig)
}

func TestDirectional_OscillatorGateBlocksCrossover(t *testing.T) {
	gen := NewDirectional(2, 3, 3)

	// Same crossover shape, but the large initial drop keeps the
	// oscillator below the centerline.
	sig := gen.CheckEntry(candlesFromCloses(10, 2, 3, 4))
	assert.Equal(t, SignalNone, sig)
}

func TestDirectional_BearishCrossover(t *testing.T) {
	gen := NewDirectional(2, 3, 3)

	sig := gen.CheckEntry(candlesFromCloses(2.5, 4, 3, 2))
	assert.Equal(t, SignalBearCallSpread, sig)
}

func TestDirectional_InsufficientHistory(t *testing.T) {
	gen := NewDirectional(2, 3, 3)

	assert.Equal(t, SignalNone, gen.CheckEntry(candlesFromCloses(1, 2)))
	assert.Equal(t, SignalNone, gen.CheckEntry(nil))
}

func TestDirectional_Lookback(t *testing.T) {
	assert.Equal(t, 55, NewDirectional(21, 55, 14).Lookback())
	assert.Equal(t, 30, NewDirectional(5, 10, 30).Lookback())
}

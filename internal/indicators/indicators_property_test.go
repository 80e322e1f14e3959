package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-backtester/internal/models"
)

// closeSeriesGen generates a series of positive closing prices with
// increasing timestamps.
func closeSeriesGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(1.0, 10000.0)).Map(func(closes []float64) []models.Candle {
		if len(closes) < minLen {
			for len(closes) < minLen {
				closes = append(closes, closes[len(closes)-1])
			}
		}
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
		candles := make([]models.Candle, len(closes))
		for i, c := range closes {
			candles[i] = models.Candle{
				Timestamp: base.Add(time.Duration(i) * time.Hour),
				Open:      c,
				High:      c,
				Low:       c,
				Close:     c,
				Volume:    1000,
			}
		}
		return candles
	})
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(candles []models.Candle) bool {
			rsi := NewRSI(14)
			values, err := rsi.Calculate(candles)
			if err != nil {
				// Insufficient data is acceptable
				return true
			}

			for i := rsi.Period(); i < len(values); i++ {
				if values[i] < 0 || values[i] > 100 {
					return false
				}
			}
			return true
		},
		closeSeriesGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_SMAEqualsWindowMean(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("SMA equals the arithmetic mean of its window", prop.ForAll(
		func(candles []models.Candle) bool {
			sma := NewSMA(7)
			values, err := sma.Calculate(candles)
			if err != nil {
				return true
			}

			for i := sma.Period() - 1; i < len(values); i++ {
				var sum float64
				for j := i - sma.Period() + 1; j <= i; j++ {
					sum += candles[j].Close
				}
				expected := sum / float64(sma.Period())
				if math.Abs(values[i]-expected) > 1e-9*math.Max(1, math.Abs(expected)) {
					return false
				}
			}
			return true
		},
		closeSeriesGen(10, 60),
	))

	properties.TestingRun(t)
}

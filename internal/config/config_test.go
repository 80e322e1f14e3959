package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesTemplateAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Template written for the next run
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)

	assert.Equal(t, "NSE:NIFTY50-INDEX", cfg.Backtest.UnderlyingSymbol)
	assert.Equal(t, 21, cfg.Backtest.ShortMAPeriod)
	assert.Equal(t, 55, cfg.Backtest.LongMAPeriod)
	assert.Equal(t, 14, cfg.Backtest.OscillatorPeriod)
	assert.Equal(t, 18.0, cfg.Backtest.VolatilityThreshold)
	assert.Equal(t, 0.2, cfg.Backtest.StopLossFraction)
	assert.Equal(t, 0.8, cfg.Backtest.TakeProfitFraction)
	assert.Equal(t, 0.1, cfg.Backtest.CapitalAllocationFraction)
	assert.Equal(t, "csv", cfg.Data.Provider)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `[backtest]
initial_capital = 250000.0
volatility_threshold = 22.0

[data]
provider = "csv"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 250000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 22.0, cfg.Backtest.VolatilityThreshold)
	// Untouched keys keep their defaults
	assert.Equal(t, 21, cfg.Backtest.ShortMAPeriod)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKTESTER_DATA_PROVIDER", "fyers")
	t.Setenv("FYERS_CLIENT_ID", "ABC-100")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "fyers", cfg.Data.Provider)
	assert.Equal(t, "ABC-100", cfg.Data.Fyers.ClientID)
}

func validConfig() *Config {
	return &Config{
		Backtest: BacktestConfig{
			UnderlyingSymbol:          "NSE:NIFTY50-INDEX",
			VolatilitySymbol:          "NSE:INDIAVIX-INDEX",
			InitialCapital:            100000,
			ShortMAPeriod:             21,
			LongMAPeriod:              55,
			OscillatorPeriod:          14,
			VolatilityThreshold:       18,
			StopLossFraction:          0.2,
			TakeProfitFraction:        0.8,
			CapitalAllocationFraction: 0.1,
			SellDelta:                 0.6,
			BuyDelta:                  0.3,
			StraddleDelta:             0.5,
			StraddleMarginRate:        0.2,
		},
		Data: DataConfig{Provider: "csv"},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive capital", func(c *Config) { c.Backtest.InitialCapital = 0 }},
		{"zero period", func(c *Config) { c.Backtest.OscillatorPeriod = 0 }},
		{"short period not below long", func(c *Config) { c.Backtest.ShortMAPeriod = 55 }},
		{"zero stop loss", func(c *Config) { c.Backtest.StopLossFraction = 0 }},
		{"allocation above one", func(c *Config) { c.Backtest.CapitalAllocationFraction = 1.5 }},
		{"delta out of range", func(c *Config) { c.Backtest.SellDelta = 1.2 }},
		{"zero straddle margin rate", func(c *Config) { c.Backtest.StraddleMarginRate = 0 }},
		{"unknown provider", func(c *Config) { c.Data.Provider = "kite" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

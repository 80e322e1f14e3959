// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Data     DataConfig     `mapstructure:"data"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BacktestConfig holds simulation parameters. All strategy and risk knobs
// are carried here and injected at construction, never read from ambient
// process state.
type BacktestConfig struct {
	UnderlyingSymbol string  `mapstructure:"underlying_symbol"`
	VolatilitySymbol string  `mapstructure:"volatility_symbol"`
	InitialCapital   float64 `mapstructure:"initial_capital"`

	ShortMAPeriod    int `mapstructure:"short_ma_period"`
	LongMAPeriod     int `mapstructure:"long_ma_period"`
	OscillatorPeriod int `mapstructure:"oscillator_period"`

	VolatilityThreshold float64 `mapstructure:"volatility_threshold"`

	StopLossFraction          float64 `mapstructure:"stop_loss_fraction"`
	TakeProfitFraction        float64 `mapstructure:"take_profit_fraction"`
	CapitalAllocationFraction float64 `mapstructure:"capital_allocation_fraction"`

	SellDelta          float64 `mapstructure:"sell_delta"`
	BuyDelta           float64 `mapstructure:"buy_delta"`
	StraddleDelta      float64 `mapstructure:"straddle_delta"`
	StraddleMarginRate float64 `mapstructure:"straddle_margin_rate"`
}

// DataConfig holds market data provider configuration.
type DataConfig struct {
	Provider  string      `mapstructure:"provider"` // "csv", "fyers"
	CSVDir    string      `mapstructure:"csv_dir"`
	CachePath string      `mapstructure:"cache_path"` // empty disables the candle cache
	Fyers     FyersConfig `mapstructure:"fyers"`
}

// FyersConfig holds Fyers API client configuration.
type FyersConfig struct {
	ClientID  string `mapstructure:"client_id"`
	TokenFile string `mapstructure:"token_file"`
	BaseURL   string `mapstructure:"base_url"`
	Timeframe string `mapstructure:"timeframe"` // candle resolution for history
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-backtester"
	}
	return filepath.Join(home, ".config", "options-backtester")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backtest.underlying_symbol", "NSE:NIFTY50-INDEX")
	v.SetDefault("backtest.volatility_symbol", "NSE:INDIAVIX-INDEX")
	v.SetDefault("backtest.initial_capital", 100000.0)
	v.SetDefault("backtest.short_ma_period", 21)
	v.SetDefault("backtest.long_ma_period", 55)
	v.SetDefault("backtest.oscillator_period", 14)
	v.SetDefault("backtest.volatility_threshold", 18.0)
	v.SetDefault("backtest.stop_loss_fraction", 0.2)
	v.SetDefault("backtest.take_profit_fraction", 0.8)
	v.SetDefault("backtest.capital_allocation_fraction", 0.1)
	v.SetDefault("backtest.sell_delta", 0.6)
	v.SetDefault("backtest.buy_delta", 0.3)
	v.SetDefault("backtest.straddle_delta", 0.5)
	v.SetDefault("backtest.straddle_margin_rate", 0.2)

	v.SetDefault("data.provider", "csv")
	v.SetDefault("data.csv_dir", filepath.Join(DefaultConfigDir(), "data"))
	v.SetDefault("data.cache_path", filepath.Join(DefaultConfigDir(), "candles.db"))
	v.SetDefault("data.fyers.base_url", "https://api-t1.fyers.in")
	v.SetDefault("data.fyers.token_file", filepath.Join(DefaultConfigDir(), ".fyers_access_token"))
	v.SetDefault("data.fyers.timeframe", "D")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FYERS_CLIENT_ID"); v != "" {
		cfg.Data.Fyers.ClientID = v
	}
	if v := os.Getenv("FYERS_TOKEN_FILE"); v != "" {
		cfg.Data.Fyers.TokenFile = v
	}
	if v := os.Getenv("BACKTESTER_DATA_PROVIDER"); v != "" {
		cfg.Data.Provider = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	b := c.Backtest

	if b.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive")
	}
	if b.ShortMAPeriod <= 0 || b.LongMAPeriod <= 0 || b.OscillatorPeriod <= 0 {
		return fmt.Errorf("indicator periods must be positive")
	}
	if b.ShortMAPeriod >= b.LongMAPeriod {
		return fmt.Errorf("short_ma_period must be less than long_ma_period")
	}
	if b.StopLossFraction <= 0 || b.TakeProfitFraction <= 0 {
		return fmt.Errorf("stop_loss_fraction and take_profit_fraction must be positive")
	}
	if b.CapitalAllocationFraction <= 0 || b.CapitalAllocationFraction > 1 {
		return fmt.Errorf("capital_allocation_fraction must be in (0, 1]")
	}
	for _, d := range []float64{b.SellDelta, b.BuyDelta, b.StraddleDelta} {
		if d < 0 || d > 1 {
			return fmt.Errorf("delta targets must be in [0, 1]")
		}
	}
	if b.StraddleMarginRate <= 0 {
		return fmt.Errorf("straddle_margin_rate must be positive")
	}

	switch c.Data.Provider {
	case "csv", "fyers":
	default:
		return fmt.Errorf("invalid data provider: %s (must be 'csv' or 'fyers')", c.Data.Provider)
	}

	return nil
}

const configTemplate = `# options-backtester configuration

[backtest]
underlying_symbol = "NSE:NIFTY50-INDEX"
volatility_symbol = "NSE:INDIAVIX-INDEX"
initial_capital = 100000.0
short_ma_period = 21
long_ma_period = 55
oscillator_period = 14
volatility_threshold = 18.0
stop_loss_fraction = 0.2
take_profit_fraction = 0.8
capital_allocation_fraction = 0.1
sell_delta = 0.6
buy_delta = 0.3
straddle_delta = 0.5
straddle_margin_rate = 0.2

[data]
# "csv" reads candles and chain snapshots from csv_dir,
# "fyers" fetches from the Fyers API (requires client_id and a token file)
provider = "csv"
#csv_dir = ""
#cache_path = ""

[data.fyers]
#client_id = ""
#token_file = ""

[logging]
level = "info"
console = true
file = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}

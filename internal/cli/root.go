// Package cli provides the command-line interface for the backtester.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-backtester/internal/config"
	"options-backtester/internal/logging"
	"options-backtester/internal/marketdata"
	"options-backtester/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Provider marketdata.Provider
	Store    store.CandleStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize the candle cache. A failure here only disables caching.
	if cfg.Data.CachePath != "" {
		candleStore, err := store.NewSQLiteStore(cfg.Data.CachePath)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize candle cache, fetches will not be cached")
		} else {
			app.Store = candleStore
			logger.Debug().Str("path", cfg.Data.CachePath).Msg("Candle cache initialized")
		}
	}

	rootCmd := &cobra.Command{
		Use:   "backtester",
		Short: "Options strategy backtester for the Indian derivatives market",
		Long: `Backtester simulates multi-leg options strategies over historical candles.

It evaluates a directional signal (moving-average crossover confirmed by RSI)
and a non-directional signal (volatility index above a threshold) on each
step, opens simulated credit positions selected by delta, and settles them
at end of day against stop-loss and take-profit rules.

Market data comes from CSV files or the Fyers API, configured in
~/.config/options-backtester/config.toml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newDataCmd(app))

	return rootCmd
}

// provider builds the configured market data provider, wrapped in the
// candle cache when the store is available. Construction is deferred to
// command time so config-only commands never touch the network or the
// token file.
func (app *App) provider() (marketdata.Provider, error) {
	if app.Provider != nil {
		return app.Provider, nil
	}

	var inner marketdata.Provider
	switch app.Config.Data.Provider {
	case "fyers":
		client, err := marketdata.NewFyersClient(marketdata.FyersConfig{
			ClientID:  app.Config.Data.Fyers.ClientID,
			TokenFile: app.Config.Data.Fyers.TokenFile,
			BaseURL:   app.Config.Data.Fyers.BaseURL,
			Timeframe: app.Config.Data.Fyers.Timeframe,
		})
		if err != nil {
			return nil, err
		}
		inner = client
	default:
		inner = marketdata.NewCSVProvider(app.Config.Data.CSVDir)
	}

	if app.Store != nil {
		app.Provider = marketdata.NewCachedProvider(inner, app.Store, app.Logger)
	} else {
		app.Provider = inner
	}
	return app.Provider, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Backtester v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Show configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			configPath := filepath.Join(config.DefaultConfigDir(), "config.toml")
			output.Info("Configuration file: %s", configPath)
			output.Println("Edit this file to change settings.")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	b := cfg.Backtest

	output.Bold("Backtest Configuration")
	output.Printf("  Underlying:        %s\n", b.UnderlyingSymbol)
	output.Printf("  Volatility Index:  %s\n", b.VolatilitySymbol)
	output.Printf("  Initial Capital:   %s\n", FormatIndianCurrency(b.InitialCapital))
	output.Printf("  MA Periods:        %d / %d\n", b.ShortMAPeriod, b.LongMAPeriod)
	output.Printf("  Oscillator Period: %d\n", b.OscillatorPeriod)
	output.Printf("  Vol Threshold:     %.1f\n", b.VolatilityThreshold)
	output.Println()

	output.Bold("Risk Configuration")
	output.Printf("  Stop Loss:         %.0f%% of entry premium\n", b.StopLossFraction*100)
	output.Printf("  Take Profit:       %.0f%% of entry premium\n", b.TakeProfitFraction*100)
	output.Printf("  Allocation/Trade:  %.0f%% of initial capital\n", b.CapitalAllocationFraction*100)
	output.Println()

	output.Bold("Delta Targets")
	output.Printf("  Sell Leg:          %.2f\n", b.SellDelta)
	output.Printf("  Buy Leg:           %.2f\n", b.BuyDelta)
	output.Printf("  Straddle:          %.2f\n", b.StraddleDelta)
	output.Println()

	output.Bold("Data")
	output.Printf("  Provider:          %s\n", cfg.Data.Provider)
	if cfg.Data.Provider == "csv" {
		output.Printf("  CSV Directory:     %s\n", cfg.Data.CSVDir)
	}
	output.Printf("  Candle Cache:      %s\n", cacheStatus(cfg.Data.CachePath))

	return nil
}

func cacheStatus(path string) string {
	if path == "" {
		return "disabled"
	}
	return path
}

package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"options-backtester/internal/backtest"
	"options-backtester/internal/performance"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a date range",
		Long: `Run the strategy backtest over historical candles.

Strategy parameters come from the configuration file; the symbol, date
range, and starting capital can be overridden with flags.`,
		Example: `  backtester run --from 2024-01-01 --to 2024-12-31
  backtester run --symbol NSE:BANKNIFTY-INDEX --capital 500000
  backtester run --from 2024-01-01 --to 2024-06-30 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")

			from, err := ParseDate(fromStr)
			if err != nil {
				output.Error("Invalid --from date: %v", err)
				return err
			}
			to, err := ParseDate(toStr)
			if err != nil {
				output.Error("Invalid --to date: %v", err)
				return err
			}

			btCfg := app.Config.Backtest
			if symbol, _ := cmd.Flags().GetString("symbol"); symbol != "" {
				btCfg.UnderlyingSymbol = symbol
			}
			if vix, _ := cmd.Flags().GetString("vix"); vix != "" {
				btCfg.VolatilitySymbol = vix
			}
			if capital, _ := cmd.Flags().GetFloat64("capital"); capital > 0 {
				btCfg.InitialCapital = capital
			}

			provider, err := app.provider()
			if err != nil {
				output.Error("Data provider unavailable: %v", err)
				return err
			}

			if !output.IsJSON() {
				output.Bold("Starting backtest for %s", btCfg.UnderlyingSymbol)
				output.Printf("Period:  %s to %s\n", FormatDate(from), FormatDate(to))
				output.Printf("Capital: %s\n", FormatIndianCurrency(btCfg.InitialCapital))
				output.Println()
			}

			engine := backtest.NewEngine(btCfg, provider, app.Logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			report, err := engine.Run(ctx, from, to)
			if err != nil {
				output.Error("Backtest aborted: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}
			return printReport(output, report)
		},
	}

	cmd.Flags().String("symbol", "", "underlying symbol (default from config)")
	cmd.Flags().String("vix", "", "volatility index symbol (default from config)")
	cmd.Flags().StringP("from", "f", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringP("to", "t", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64P("capital", "c", 0, "initial capital (default from config)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func printReport(output *Output, r *performance.Report) error {
	output.Bold("--- Backtest Report ---")
	output.Printf("Period:          %s to %s\n", FormatDate(r.From), FormatDate(r.To))
	output.Printf("Initial Capital: %s\n", FormatIndianCurrency(r.InitialCapital))
	output.Printf("Final Capital:   %s\n", FormatIndianCurrency(r.FinalCapital))
	output.Printf("Total P&L:       %s (%s)\n", output.FormatPnL(r.TotalPnL), output.FormatPercentColored(r.PnLPercent))
	output.Dim("-------------------------")
	output.Printf("Total Trades:    %d\n", r.TotalTrades)
	output.Printf("Winning Trades:  %s\n", output.ColoredString(ColorGreen, strconv.Itoa(r.WinningTrades)))
	output.Printf("Losing Trades:   %s\n", output.ColoredString(ColorRed, strconv.Itoa(r.LosingTrades)))
	output.Printf("Win Rate:        %.2f%%\n", r.WinRate)
	return nil
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Market data management",
		Long:  "Fetch and cache historical market data for later backtest runs.",
	}

	cmd.AddCommand(newDataFetchCmd(app))

	return cmd
}

func newDataFetchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <symbol>",
		Short: "Prefetch historical candles into the cache",
		Long: `Fetch historical candles for a symbol and store them in the candle
cache so subsequent backtest runs read them locally.`,
		Example: `  backtester data fetch NSE:NIFTY50-INDEX --from 2024-01-01 --to 2024-12-31
  backtester data fetch NSE:INDIAVIX-INDEX --from 2024-01-01 --to 2024-12-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := args[0]
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

			provider, err := app.provider()
			if err != nil {
				output.Error("Data provider unavailable: %v", err)
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			candles, err := provider.FetchHistory(ctx, symbol, from, to)
			if err != nil {
				output.Error("Fetch failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":  symbol,
					"from":    FormatDate(from),
					"to":      FormatDate(to),
					"candles": len(candles),
				})
			}

			if len(candles) == 0 {
				output.Warning("No candles found for %s in %s to %s", symbol, FormatDate(from), FormatDate(to))
				return nil
			}

			output.Success("Fetched %d candles for %s (%s to %s)", len(candles), symbol,
				FormatDate(candles[0].Timestamp), FormatDate(candles[len(candles)-1].Timestamp))
			if app.Store == nil {
				output.Warning("Candle cache is disabled; data was not persisted")
			}
			return nil
		},
	}

	cmd.Flags().StringP("from", "f", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringP("to", "t", "", "end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

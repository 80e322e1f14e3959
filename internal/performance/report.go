// Package performance aggregates a finished run's trade history into the
// final report.
package performance

import (
	"fmt"
	"strings"
	"time"

	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

// Report is the aggregate outcome of a backtest run.
type Report struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalPnL       float64 `json:"total_pnl"`
	PnLPercent     float64 `json:"pnl_percent"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
}

// Summarize builds a report from the run's final cash and complete trade
// history. A trade counts as a win only when its P&L is strictly positive;
// breakeven trades count as losses. Positions still open at the end of the
// run are counted at their last marked P&L.
func Summarize(initialCapital, finalCash float64, from, to time.Time, trades []*models.Position) *Report {
	r := &Report{
		From:           from,
		To:             to,
		InitialCapital: initialCapital,
		FinalCapital:   finalCash,
		TotalPnL:       finalCash - initialCapital,
		TotalTrades:    len(trades),
	}

	if initialCapital != 0 {
		r.PnLPercent = r.TotalPnL / initialCapital * 100
	}

	for _, t := range trades {
		if t.PnL > 0 {
			r.WinningTrades++
		} else {
			r.LosingTrades++
		}
	}

	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}

	return r
}

// Format renders the report as the console block printed after a run.
func (r *Report) Format() string {
	var b strings.Builder

	b.WriteString("--- Backtest Report ---\n")
	fmt.Fprintf(&b, "Period:          %s to %s\n", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "Initial Capital: %s\n", utils.FormatIndianCurrency(r.InitialCapital))
	fmt.Fprintf(&b, "Final Capital:   %s\n", utils.FormatIndianCurrency(r.FinalCapital))
	fmt.Fprintf(&b, "Total P&L:       %s (%s)\n", utils.FormatIndianCurrency(r.TotalPnL), utils.FormatPercent(r.PnLPercent))
	b.WriteString("-------------------------\n")
	fmt.Fprintf(&b, "Total Trades:    %d\n", r.TotalTrades)
	fmt.Fprintf(&b, "Winning Trades:  %d\n", r.WinningTrades)
	fmt.Fprintf(&b, "Losing Trades:   %d\n", r.LosingTrades)
	fmt.Fprintf(&b, "Win Rate:        %.2f%%\n", r.WinRate)

	return b.String()
}

package backtest

import (
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/strategy"
)

// Ledger owns cash, the open position set, and the append-only trade
// history. All mutation goes through Open, Mark, and Close; positions are
// never handed out for ad-hoc external mutation.
type Ledger struct {
	initialCapital     float64
	allocationFraction float64

	cash    float64
	open    []*models.Position
	history []*models.Position
}

// NewLedger creates a ledger funded with the initial capital. The
// allocation fraction caps margin per trade relative to initial capital,
// independent of current cash.
func NewLedger(initialCapital, allocationFraction float64) *Ledger {
	return &Ledger{
		initialCapital:     initialCapital,
		allocationFraction: allocationFraction,
		cash:               initialCapital,
	}
}

// Cash returns the current free cash.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// InitialCapital returns the capital the ledger started with.
func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital
}

// OpenPositions returns the currently open positions. The returned slice
// is a copy; the positions themselves are shared.
func (l *Ledger) OpenPositions() []*models.Position {
	out := make([]*models.Position, len(l.open))
	copy(out, l.open)
	return out
}

// History returns every position ever created, open or closed.
func (l *Ledger) History() []*models.Position {
	out := make([]*models.Position, len(l.history))
	copy(out, l.history)
	return out
}

// Open applies the risk gate and, on success, debits cash by the required
// margin and records the position as OPEN. Gate checks run in order and
// any failure leaves the ledger unchanged.
func (l *Ledger) Open(pos *models.Position) error {
	if pos.MarginRequired <= 0 {
		return errors.NewRiskError("margin_positive", pos.MarginRequired, 0, "margin must be positive")
	}
	if pos.MarginRequired > l.cash {
		return errors.NewRiskError("margin_vs_cash", pos.MarginRequired, l.cash, "margin exceeds available cash")
	}
	maxPerTrade := l.initialCapital * l.allocationFraction
	if pos.MarginRequired > maxPerTrade {
		return errors.NewRiskError("capital_allocation", pos.MarginRequired, maxPerTrade, "margin exceeds per-trade capital allocation")
	}

	pos.Status = models.PositionOpen
	pos.PnL = 0

	l.cash -= pos.MarginRequired
	l.open = append(l.open, pos)
	l.history = append(l.history, pos)
	return nil
}

// Mark stores the position's mark-to-market P&L. Last write wins; marking
// is not cumulative.
func (l *Ledger) Mark(pos *models.Position, pnl float64) {
	pos.PnL = pnl
}

// Close flips the position to CLOSED, credits cash by the reserved margin
// plus the realized P&L, and removes it from the open set. The trade
// history keeps its reference.
func (l *Ledger) Close(pos *models.Position, reason strategy.ExitReason, at time.Time) {
	if pos.Status != models.PositionOpen {
		return
	}

	pos.Status = models.PositionClosed
	pos.ExitReason = string(reason)
	pos.ClosedAt = at

	l.cash += pos.MarginRequired + pos.PnL

	for i, p := range l.open {
		if p == pos {
			l.open = append(l.open[:i], l.open[i+1:]...)
			break
		}
	}
}

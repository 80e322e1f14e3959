// Package models provides domain models for the backtester.
package models

import (
	"time"
)

// OptionType represents the type of an option contract.
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// LegAction represents the side of a position leg.
type LegAction string

const (
	LegActionBuy  LegAction = "BUY"
	LegActionSell LegAction = "SELL"
)

// PositionStatus represents the lifecycle state of a position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// OptionContract represents a single contract from an option chain snapshot.
// Delta carries the source sign convention: positive for calls, negative
// for puts.
type OptionContract struct {
	Symbol string
	Type   OptionType
	Strike float64
	LTP    float64
	Delta  float64
}

// OptionChain represents a snapshot of an option chain for an underlying.
type OptionChain struct {
	Underlying string
	SpotPrice  float64
	Contracts  []OptionContract
}

// Leg represents one buy or sell of a single contract within a position.
type Leg struct {
	Action   LegAction
	Contract OptionContract
}

// Position represents a multi-leg option position.
//
// EntryNetPremium is the magnitude of premium received at entry (all
// supported strategies are net-credit). MarginRequired is the capital
// reserved at entry. Both are fixed at creation and never mutated.
// PnL is updated by end-of-day settlement as
// EntryNetPremium - currentNetPremium.
type Position struct {
	Strategy        string
	Legs            []Leg
	EntryNetPremium float64
	MarginRequired  float64
	PnL             float64
	Status          PositionStatus
	OpenedAt        time.Time
	ClosedAt        time.Time
	ExitReason      string
}

package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// PositionState is the engine's position for one instrument-strategy pair.
// Exactly one state is active at any time.
type PositionState string

const (
	PositionFlat  PositionState = "FLAT"
	PositionLong  PositionState = "LONG"
	PositionShort PositionState = "SHORT"
)

// SignalType classifies a position transition for persistence.
type SignalType string

const (
	SignalLongEntry  SignalType = "LONG_ENTRY"
	SignalShortEntry SignalType = "SHORT_ENTRY"
	SignalLongExit   SignalType = "LONG_EXIT"
	SignalShortExit  SignalType = "SHORT_EXIT"
)

// TransitionSignalType maps a state change to its signal classification.
func TransitionSignalType(from, to PositionState) SignalType {
	switch {
	case from == PositionFlat && to == PositionLong:
		return SignalLongEntry
	case from == PositionFlat && to == PositionShort:
		return SignalShortEntry
	case from == PositionLong && to == PositionFlat:
		return SignalLongExit
	default:
		return SignalShortExit
	}
}

// TransitionEvent is emitted by the engine on every position change and
// consumed by the ledger and, on the monitoring path, the signal logger.
type TransitionEvent struct {
	BarTime time.Time
	From    PositionState
	To      PositionState
	Price   float64
	Reason  string
	Values  map[string]float64
}

// Trade records one round trip. Exit fields stay zero while the position is
// open; a finalized trade is append-only.
type Trade struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           Side      `json:"side"`
	Size           float64   `json:"size"`
	EntryTime      time.Time `json:"entry_time"`
	EntryPrice     float64   `json:"entry_price"`
	ExitTime       time.Time `json:"exit_time"`
	ExitPrice      float64   `json:"exit_price"`
	Commission     float64   `json:"commission"`
	RealizedPnL    float64   `json:"realized_pnl"`
	RealizedPnLPct float64   `json:"realized_pnl_pct"`
	Open           bool      `json:"open"`
	ExitReason     string    `json:"exit_reason,omitempty"`
}

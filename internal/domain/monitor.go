package domain

import "time"

// MonitoredInstrument is one watch-list entry: a symbol/interval pair bound
// to a strategy configuration, re-evaluated every scheduler pass.
type MonitoredInstrument struct {
	ID             string             `json:"id"`
	Symbol         string             `json:"symbol"`
	Interval       string             `json:"interval"`
	StrategyID     string             `json:"strategy_id"`
	StrategyParams map[string]float64 `json:"strategy_params"`
	CreatedAt      time.Time          `json:"created_at"`
	LastCheckedAt  time.Time          `json:"last_checked_at"`
}

// SignalRecord is one persisted transition detected during live monitoring.
// Records are append-only and unique on (instrument_id, bar_time, type).
type SignalRecord struct {
	ID           int64      `json:"id"`
	InstrumentID string     `json:"instrument_id"`
	DetectedAt   time.Time  `json:"detected_at"`
	BarTime      time.Time  `json:"bar_time"`
	Type         SignalType `json:"type"`
	Price        float64    `json:"price"`
}

// SignalFilter narrows ListSignals. Zero values mean "no constraint".
type SignalFilter struct {
	InstrumentID string
	Since        time.Time
	Limit        int
}

// InstrumentStatus reports the outcome of one instrument's evaluation in a
// scheduler pass. Err is nil on success; Signals holds newly persisted
// records only.
type InstrumentStatus struct {
	InstrumentID string
	Symbol       string
	Signals      []SignalRecord
	Err          error
}

package domain

import (
	"context"
	"time"
)

// MarketData fetches bars for a symbol/interval. Implementations must return
// bars in strictly increasing time order and may return an empty slice with
// a nil error when nothing newer than since is available.
type MarketData interface {
	Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]Bar, error)
}

// InstrumentRepository defines storage operations for the watch-list.
type InstrumentRepository interface {
	SaveInstrument(ctx context.Context, inst *MonitoredInstrument) error
	GetInstrument(ctx context.Context, id string) (*MonitoredInstrument, error)
	ListInstruments(ctx context.Context) ([]*MonitoredInstrument, error)
	DeleteInstrument(ctx context.Context, id string) error
	UpdateLastChecked(ctx context.Context, id string, ts time.Time) error
}

// SignalRepository defines storage operations for detected signals.
type SignalRepository interface {
	// InsertSignalIfAbsent persists the record unless one with the same
	// (instrument_id, bar_time, type) already exists. It reports whether a
	// row was actually inserted; a duplicate is not an error.
	InsertSignalIfAbsent(ctx context.Context, sig *SignalRecord) (bool, error)
	ListSignals(ctx context.Context, filter SignalFilter) ([]*SignalRecord, error)
	// LastSignalTime returns the newest bar_time recorded for the
	// instrument, or the zero time when no signal exists yet.
	LastSignalTime(ctx context.Context, instrumentID string) (time.Time, error)
}

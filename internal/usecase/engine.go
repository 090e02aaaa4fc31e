package usecase

import (
	"fmt"
	"time"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/strategy"
)

// EntryPriority decides which side wins when long and short entry
// predicates fire on the same bar.
type EntryPriority string

const (
	PriorityLong  EntryPriority = "long"
	PriorityShort EntryPriority = "short"
)

// EngineConfig controls state-machine policy. The defaults match the
// documented behavior: long entries win ties and a bar that closes a
// position cannot also open a new one.
type EngineConfig struct {
	EntryPriority  EntryPriority
	ReentrySameBar bool
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{EntryPriority: PriorityLong}
}

// Engine is the per-instrument strategy state machine. It consumes closed
// bars one at a time and emits position transitions. The engine value
// itself is the resumable checkpoint: position state plus the rule set's
// indicator accumulators. Feeding the same bar sequence to a fresh engine
// always reproduces the same transitions.
type Engine struct {
	rules strategy.Rules
	cfg   EngineConfig

	pos         domain.PositionState
	lastBarTime time.Time
}

func NewEngine(rules strategy.Rules, cfg EngineConfig) *Engine {
	if cfg.EntryPriority == "" {
		cfg.EntryPriority = PriorityLong
	}
	return &Engine{
		rules: rules,
		cfg:   cfg,
		pos:   domain.PositionFlat,
	}
}

func (e *Engine) Position() domain.PositionState {
	return e.pos
}

// LastBarTime returns the timestamp of the most recently processed bar, or
// the zero time when no bar has been seen.
func (e *Engine) LastBarTime() time.Time {
	return e.lastBarTime
}

// Reset returns the engine to its initial state for a full replay.
func (e *Engine) Reset() {
	e.rules.Reset()
	e.pos = domain.PositionFlat
	e.lastBarTime = time.Time{}
}

// ProcessBar consumes the next bar and returns the transitions it caused:
// none, one, or (close followed by re-entry, only when ReentrySameBar is
// set) two. Bars at or before the last processed timestamp are rejected.
func (e *Engine) ProcessBar(bar domain.Bar) ([]domain.TransitionEvent, error) {
	if !e.lastBarTime.IsZero() && !bar.Time.After(e.lastBarTime) {
		return nil, fmt.Errorf("bar %s is not newer than last processed bar %s",
			bar.Time, e.lastBarTime)
	}
	e.lastBarTime = bar.Time

	ev, err := e.rules.Evaluate(bar)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPredicateEvaluation, err)
	}
	if !ev.Ready {
		return nil, nil
	}

	var events []domain.TransitionEvent

	switch e.pos {
	case domain.PositionLong:
		if ev.LongExit {
			events = append(events, e.transition(bar, domain.PositionFlat, ev))
		}
	case domain.PositionShort:
		if ev.ShortExit {
			events = append(events, e.transition(bar, domain.PositionFlat, ev))
		}
	}

	// A closing bar opens a new position only when explicitly configured.
	closedThisBar := len(events) > 0
	if e.pos == domain.PositionFlat && (!closedThisBar || e.cfg.ReentrySameBar) {
		if to, ok := e.pickEntry(ev); ok {
			events = append(events, e.transition(bar, to, ev))
		}
	}

	return events, nil
}

// pickEntry applies the configured tie-break when both entry predicates
// hold on the same bar.
func (e *Engine) pickEntry(ev strategy.Evaluation) (domain.PositionState, bool) {
	switch {
	case ev.LongEntry && ev.ShortEntry:
		if e.cfg.EntryPriority == PriorityShort {
			return domain.PositionShort, true
		}
		return domain.PositionLong, true
	case ev.LongEntry:
		return domain.PositionLong, true
	case ev.ShortEntry:
		return domain.PositionShort, true
	default:
		return domain.PositionFlat, false
	}
}

func (e *Engine) transition(bar domain.Bar, to domain.PositionState, ev strategy.Evaluation) domain.TransitionEvent {
	event := domain.TransitionEvent{
		BarTime: bar.Time,
		From:    e.pos,
		To:      to,
		Price:   bar.Close,
		Reason:  ev.Reason,
		Values:  ev.Values,
	}
	e.pos = to
	return event
}

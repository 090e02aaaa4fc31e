package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/strategy"
)

func testBars(start time.Time, step time.Duration, closes ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Time:  start.Add(time.Duration(i) * step),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

// scriptedRules replays a fixed evaluation per bar, so engine tests control
// exactly which predicates fire when.
type scriptedRules struct {
	id    string
	evals []strategy.Evaluation
	errAt int // bar index that returns an error; -1 for never
	i     int
}

func newScriptedRules(evals ...strategy.Evaluation) *scriptedRules {
	return &scriptedRules{id: "scripted", evals: evals, errAt: -1}
}

func (s *scriptedRules) ID() string  { return s.id }
func (s *scriptedRules) Warmup() int { return 0 }
func (s *scriptedRules) Reset()      { s.i = 0 }

func (s *scriptedRules) Evaluate(b domain.Bar) (strategy.Evaluation, error) {
	idx := s.i
	s.i++
	if idx == s.errAt {
		return strategy.Evaluation{}, fmt.Errorf("scripted failure at bar %d", idx)
	}
	if idx < len(s.evals) {
		return s.evals[idx], nil
	}
	return strategy.Evaluation{Ready: true}, nil
}

// mockMarket serves canned bar sequences per symbol and can inject
// failures.
type mockMarket struct {
	mu     sync.Mutex
	bars   map[string][]domain.Bar
	errFor map[string]error
	calls  int
}

func newMockMarket() *mockMarket {
	return &mockMarket{
		bars:   make(map[string][]domain.Bar),
		errFor: make(map[string]error),
	}
}

func (m *mockMarket) Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]domain.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.errFor[symbol]; err != nil {
		return nil, err
	}
	var out []domain.Bar
	for _, b := range m.bars[symbol] {
		if b.Time.After(since) {
			out = append(out, b)
		}
	}
	return out, nil
}

// memStore is an in-memory implementation of both repositories, enforcing
// the same uniqueness key the sqlite store does.
type memStore struct {
	mu          sync.Mutex
	instruments map[string]*domain.MonitoredInstrument
	signals     []*domain.SignalRecord
	seen        map[string]bool
	nextID      int64

	failInsert error
}

func newMemStore() *memStore {
	return &memStore{
		instruments: make(map[string]*domain.MonitoredInstrument),
		seen:        make(map[string]bool),
	}
}

func (s *memStore) SaveInstrument(ctx context.Context, inst *domain.MonitoredInstrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inst
	s.instruments[inst.ID] = &cp
	return nil
}

func (s *memStore) GetInstrument(ctx context.Context, id string) (*domain.MonitoredInstrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instruments[id]
	if !ok {
		return nil, fmt.Errorf("instrument %s not found", id)
	}
	cp := *inst
	return &cp, nil
}

func (s *memStore) ListInstruments(ctx context.Context) ([]*domain.MonitoredInstrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.MonitoredInstrument, 0, len(s.instruments))
	for _, inst := range s.instruments {
		cp := *inst
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) DeleteInstrument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instruments, id)
	return nil
}

func (s *memStore) UpdateLastChecked(ctx context.Context, id string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instruments[id]; ok {
		inst.LastCheckedAt = ts
	}
	return nil
}

func signalKey(instrumentID string, barTime time.Time, typ domain.SignalType) string {
	return fmt.Sprintf("%s|%d|%s", instrumentID, barTime.UnixNano(), typ)
}

func (s *memStore) InsertSignalIfAbsent(ctx context.Context, sig *domain.SignalRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return false, s.failInsert
	}
	key := signalKey(sig.InstrumentID, sig.BarTime, sig.Type)
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	s.nextID++
	cp := *sig
	cp.ID = s.nextID
	s.signals = append(s.signals, &cp)
	return true, nil
}

func (s *memStore) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]*domain.SignalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.SignalRecord
	for _, sig := range s.signals {
		if filter.InstrumentID != "" && sig.InstrumentID != filter.InstrumentID {
			continue
		}
		if !filter.Since.IsZero() && !sig.BarTime.After(filter.Since) {
			continue
		}
		cp := *sig
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) LastSignalTime(ctx context.Context, instrumentID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	for _, sig := range s.signals {
		if sig.InstrumentID == instrumentID && sig.BarTime.After(last) {
			last = sig.BarTime
		}
	}
	return last, nil
}

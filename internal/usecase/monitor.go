package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/strategy"
	"go.uber.org/zap"
)

// MonitorConfig tunes the scheduler. Zero values fall back to the defaults
// below.
type MonitorConfig struct {
	// PassInterval is the cadence of Start's scan loop.
	PassInterval time.Duration
	// InstrumentTimeout bounds one instrument's fetch plus evaluation.
	InstrumentTimeout time.Duration
	// MaxConcurrency caps how many instruments are evaluated in parallel.
	MaxConcurrency int
	// Engine is the state-machine policy applied to every instrument.
	Engine EngineConfig
}

func (c *MonitorConfig) applyDefaults() {
	if c.PassInterval <= 0 {
		c.PassInterval = time.Minute
	}
	if c.InstrumentTimeout <= 0 {
		c.InstrumentTimeout = 30 * time.Second
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 10
	}
}

// runner is the cached live state for one instrument: the engine holds the
// rule set's indicator accumulators and position, so later passes only feed
// the bars that arrived since. A missing runner is rebuilt by full replay,
// which yields the same transitions.
type runner struct {
	// mu serializes evaluation so overlapping passes cannot interleave
	// bars into one engine.
	mu     sync.Mutex
	engine *Engine
}

// MonitorService re-evaluates every watch-list instrument on a cadence,
// persisting newly detected transitions as signal records. Instruments are
// isolated: one failure never aborts the rest of a pass.
type MonitorService struct {
	instruments domain.InstrumentRepository
	signals     domain.SignalRepository
	market      domain.MarketData
	catalog     *strategy.Catalog
	logger      *zap.Logger
	cfg         MonitorConfig

	mu      sync.Mutex
	runners map[string]*runner

	now func() time.Time
}

func NewMonitorService(
	instruments domain.InstrumentRepository,
	signals domain.SignalRepository,
	market domain.MarketData,
	catalog *strategy.Catalog,
	logger *zap.Logger,
	cfg MonitorConfig,
) *MonitorService {
	cfg.applyDefaults()
	return &MonitorService{
		instruments: instruments,
		signals:     signals,
		market:      market,
		catalog:     catalog,
		logger:      logger,
		cfg:         cfg,
		runners:     make(map[string]*runner),
		now:         time.Now,
	}
}

// Promote adds a symbol/strategy pair to the watch-list.
func (m *MonitorService) Promote(ctx context.Context, symbol, interval, strategyID string, params map[string]float64) (*domain.MonitoredInstrument, error) {
	// Validate the configuration up front so the watch-list never carries
	// an instrument the scheduler cannot evaluate.
	if _, err := m.catalog.Resolve(strategyID, params); err != nil {
		return nil, err
	}
	if _, err := domain.IntervalDuration(interval); err != nil {
		return nil, err
	}

	inst := &domain.MonitoredInstrument{
		ID:             uuid.New().String(),
		Symbol:         symbol,
		Interval:       interval,
		StrategyID:     strategyID,
		StrategyParams: params,
		CreatedAt:      m.now().UTC(),
	}
	if err := m.instruments.SaveInstrument(ctx, inst); err != nil {
		return nil, fmt.Errorf("save instrument: %w", err)
	}

	m.logger.Info("Instrument promoted to monitoring",
		zap.String("id", inst.ID),
		zap.String("symbol", symbol),
		zap.String("strategy", strategyID),
	)
	return inst, nil
}

// Remove deletes a watch-list entry and drops its cached runner.
func (m *MonitorService) Remove(ctx context.Context, id string) error {
	if err := m.instruments.DeleteInstrument(ctx, id); err != nil {
		return err
	}
	m.dropRunner(id)
	return nil
}

// Start runs scheduler passes on a ticker until the context is canceled.
func (m *MonitorService) Start(ctx context.Context) {
	m.logger.Info("Starting monitor scheduler",
		zap.Duration("pass_interval", m.cfg.PassInterval))

	ticker := time.NewTicker(m.cfg.PassInterval)
	go func() {
		defer ticker.Stop()

		// Run immediately first time.
		m.runAndLogPass(ctx)
		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Monitor scheduler stopped")
				return
			case <-ticker.C:
				m.runAndLogPass(ctx)
			}
		}
	}()
}

func (m *MonitorService) runAndLogPass(ctx context.Context) {
	statuses, err := m.RunPass(ctx)
	if err != nil {
		m.logger.Error("Scheduler pass failed", zap.Error(err))
		return
	}
	for _, st := range statuses {
		if st.Err != nil {
			m.logger.Warn("Instrument evaluation failed",
				zap.String("instrument", st.InstrumentID),
				zap.String("symbol", st.Symbol),
				zap.Error(st.Err),
			)
			continue
		}
		for _, sig := range st.Signals {
			m.logger.Info("Signal detected",
				zap.String("instrument", st.InstrumentID),
				zap.String("symbol", st.Symbol),
				zap.String("type", string(sig.Type)),
				zap.Time("bar", sig.BarTime),
				zap.Float64("price", sig.Price),
			)
		}
	}
}

// RunPass evaluates every monitored instrument once and returns one status
// per instrument. The returned error covers only the pass itself (listing
// the watch-list); per-instrument failures live in the statuses.
func (m *MonitorService) RunPass(ctx context.Context) ([]domain.InstrumentStatus, error) {
	insts, err := m.instruments.ListInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}

	statuses := make([]domain.InstrumentStatus, len(insts))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, m.cfg.MaxConcurrency)

	for i, inst := range insts {
		wg.Add(1)
		go func(idx int, inst *domain.MonitoredInstrument) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			ictx, cancel := context.WithTimeout(ctx, m.cfg.InstrumentTimeout)
			statuses[idx] = m.evaluate(ictx, inst)
			cancel()

			// The timestamp records scan attempts, not successes: bump it
			// even when the evaluation failed, on a context of its own so
			// an instrument timeout cannot starve the bookkeeping write.
			uctx, ucancel := context.WithTimeout(ctx, 5*time.Second)
			if err := m.instruments.UpdateLastChecked(uctx, inst.ID, m.now().UTC()); err != nil {
				m.logger.Warn("Failed to update last_checked_at",
					zap.String("instrument", inst.ID), zap.Error(err))
			}
			ucancel()
		}(i, inst)
	}
	wg.Wait()

	return statuses, nil
}

// evaluate runs one instrument: resume or rebuild its engine, feed new
// bars, persist new transitions. Detection and persistence form one logical
// step; any failure discards the cached runner so the whole step is redone
// from scratch on the next pass.
func (m *MonitorService) evaluate(ctx context.Context, inst *domain.MonitoredInstrument) domain.InstrumentStatus {
	status := domain.InstrumentStatus{InstrumentID: inst.ID, Symbol: inst.Symbol}

	r, err := m.getRunner(inst)
	if err != nil {
		status.Err = err
		return status
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	since := r.engine.LastBarTime()
	bars, err := m.market.Fetch(ctx, inst.Symbol, inst.Interval, since)
	if err != nil {
		status.Err = fmt.Errorf("fetch bars: %w", err)
		return status
	}
	if len(bars) == 0 {
		// Nothing new is not an error; the engine state stays valid.
		return status
	}
	if err := domain.ValidateBars(bars); err != nil {
		m.dropRunner(inst.ID)
		status.Err = err
		return status
	}

	lastSignal, err := m.signals.LastSignalTime(ctx, inst.ID)
	if err != nil {
		status.Err = fmt.Errorf("read last signal: %w", err)
		return status
	}

	for _, bar := range bars {
		events, err := r.engine.ProcessBar(bar)
		if err != nil {
			m.dropRunner(inst.ID)
			status.Err = err
			return status
		}
		for _, event := range events {
			// Bars at or before the newest persisted signal were already
			// handled by an earlier pass or the rebuild replay.
			if !event.BarTime.After(lastSignal) {
				continue
			}
			record := &domain.SignalRecord{
				InstrumentID: inst.ID,
				DetectedAt:   m.now().UTC(),
				BarTime:      event.BarTime,
				Type:         domain.TransitionSignalType(event.From, event.To),
				Price:        event.Price,
			}
			inserted, err := m.signals.InsertSignalIfAbsent(ctx, record)
			if err != nil {
				// Retried as a unit: the replayed engine will re-detect
				// this transition next pass.
				m.dropRunner(inst.ID)
				status.Err = fmt.Errorf("persist signal: %w", err)
				return status
			}
			if inserted {
				status.Signals = append(status.Signals, *record)
			}
		}
	}

	return status
}

func (m *MonitorService) getRunner(inst *domain.MonitoredInstrument) (*runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.runners[inst.ID]; ok {
		return r, nil
	}

	rules, err := m.catalog.Resolve(inst.StrategyID, inst.StrategyParams)
	if err != nil {
		return nil, err
	}
	r := &runner{engine: NewEngine(rules, m.cfg.Engine)}
	m.runners[inst.ID] = r
	return r, nil
}

func (m *MonitorService) dropRunner(id string) {
	m.mu.Lock()
	delete(m.runners, id)
	m.mu.Unlock()
}

package tests

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/infrastructure/storage"
	"github.com/vitos/strategy_monitor/internal/strategy"
	"github.com/vitos/strategy_monitor/internal/usecase"
	"go.uber.org/zap"
)

func TestBacktestEndToEnd(t *testing.T) {
	market := NewMockMarket()
	market.Bars["BTCUSDT"] = sineBars(400, 100, 20, 50)

	svc := usecase.NewBacktestService(market, strategy.NewCatalog(), zap.NewNop())
	result, err := svc.Run(context.Background(), usecase.BacktestRequest{
		Symbol:         "BTCUSDT",
		Interval:       "60",
		StrategyID:     strategy.MACrossID,
		StrategyParams: map[string]float64{"fast_period": 5, "slow_period": 15},
		StartingCash:   10_000,
		CommissionRate: 0.001,
		Sizing:         usecase.SizingPolicy{CashFraction: 0.9},
	})
	require.NoError(t, err)

	// An oscillating market gives a crossover strategy several round trips.
	assert.Greater(t, result.Metrics.TotalTrades, 3)
	assert.Len(t, result.EquityCurve, 400)
	assert.Greater(t, result.Metrics.TotalFees, 0.0)

	// Closed-trade PnL reconciles with the cash account.
	var netPnL float64
	for _, tr := range result.Trades {
		if tr.Open {
			continue
		}
		netPnL += tr.RealizedPnL
	}
	if result.FinalPortfolio.PositionSide == domain.PositionFlat {
		assert.InDelta(t, 10_000+netPnL, result.FinalPortfolio.Cash, 1e-6)
	}

	// Same request, same bars, same result.
	again, err := svc.Run(context.Background(), usecase.BacktestRequest{
		Symbol:         "BTCUSDT",
		Interval:       "60",
		StrategyID:     strategy.MACrossID,
		StrategyParams: map[string]float64{"fast_period": 5, "slow_period": 15},
		StartingCash:   10_000,
		CommissionRate: 0.001,
		Sizing:         usecase.SizingPolicy{CashFraction: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, result.Metrics, again.Metrics)
}

func TestAllStrategiesRunCleanly(t *testing.T) {
	market := NewMockMarket()
	market.Bars["ETHUSDT"] = sineBars(300, 2000, 150, 40)

	catalog := strategy.NewCatalog()
	svc := usecase.NewBacktestService(market, catalog, zap.NewNop())

	for _, id := range catalog.IDs() {
		result, err := svc.Run(context.Background(), usecase.BacktestRequest{
			Symbol:         "ETHUSDT",
			Interval:       "60",
			StrategyID:     id,
			StartingCash:   10_000,
			CommissionRate: 0.001,
			Sizing:         usecase.SizingPolicy{CashFraction: 0.5},
		})
		require.NoError(t, err, "strategy %s", id)
		assert.False(t, math.IsNaN(result.Metrics.SharpeRatio), "strategy %s", id)
		assert.False(t, math.IsNaN(result.Metrics.TotalReturnPct), "strategy %s", id)
	}
}

func TestMonitoringEndToEndWithSQLite(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "monitor.db"))
	require.NoError(t, err)
	defer store.Close()

	market := NewMockMarket()
	market.Bars["BTCUSDT"] = sineBars(200, 100, 20, 50)

	newService := func() *usecase.MonitorService {
		return usecase.NewMonitorService(store, store, market, strategy.NewCatalog(), zap.NewNop(), usecase.MonitorConfig{
			InstrumentTimeout: 10 * time.Second,
		})
	}

	svc := newService()
	inst, err := svc.Promote(context.Background(), "BTCUSDT", "60", strategy.MACrossID,
		map[string]float64{"fast_period": 5, "slow_period": 15})
	require.NoError(t, err)

	statuses, err := svc.RunPass(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.NoError(t, statuses[0].Err)
	require.NotEmpty(t, statuses[0].Signals)

	persisted, err := store.ListSignals(context.Background(), domain.SignalFilter{InstrumentID: inst.ID})
	require.NoError(t, err)
	require.Len(t, persisted, len(statuses[0].Signals))

	// A second pass over unchanged data records nothing new.
	statuses, err = svc.RunPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses[0].Signals)

	// A restarted daemon replaying the full history records nothing new
	// either: the uniqueness key absorbs the replay.
	restarted := newService()
	statuses, err = restarted.RunPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses[0].Signals)

	after, err := store.ListSignals(context.Background(), domain.SignalFilter{InstrumentID: inst.ID})
	require.NoError(t, err)
	assert.Len(t, after, len(persisted))

	// New bars extend history; only the new transitions land.
	market.mu.Lock()
	market.Bars["BTCUSDT"] = sineBars(260, 100, 20, 50)
	market.mu.Unlock()

	statuses, err = restarted.RunPass(context.Background())
	require.NoError(t, err)
	require.NoError(t, statuses[0].Err)

	final, err := store.ListSignals(context.Background(), domain.SignalFilter{InstrumentID: inst.ID})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(final), len(persisted))
	seen := make(map[string]bool)
	for _, sig := range final {
		key := sig.BarTime.String() + string(sig.Type)
		assert.False(t, seen[key], "duplicate signal %s", key)
		seen[key] = true
	}
}

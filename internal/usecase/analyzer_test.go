package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/strategy_monitor/internal/domain"
)

func equityCurve(start time.Time, values ...float64) []domain.EquityPoint {
	out := make([]domain.EquityPoint, len(values))
	for i, v := range values {
		out[i] = domain.EquityPoint{Time: start.Add(time.Duration(i) * time.Hour), Equity: v}
	}
	return out
}

func closedTrade(pnl float64) domain.Trade {
	return domain.Trade{RealizedPnL: pnl, Commission: 1}
}

func TestAnalyzeZeroTrades(t *testing.T) {
	// Every metric must be defined for the empty run: neutral values, no
	// NaN, no panic.
	m := Analyze(nil, nil, 10000, "60")

	assert.Equal(t, 0, m.TotalTrades)
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.Equal(t, 0.0, m.Expectancy)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.TotalReturnPct)
	assert.False(t, math.IsNaN(m.MaxDrawdownPct))
	assert.Equal(t, 10000.0, m.FinalEquity)
}

func TestAnalyzeReturnAndDrawdown(t *testing.T) {
	curve := equityCurve(t0, 10000, 11000, 9900, 10450, 12000)
	m := Analyze(curve, nil, 10000, "60")

	assert.InDelta(t, 20.0, m.TotalReturnPct, 1e-9)
	// Peak 11000 to trough 9900 is a 10% drawdown, reported negative.
	assert.InDelta(t, -10.0, m.MaxDrawdownPct, 1e-9)
}

func TestAnalyzeTradeStats(t *testing.T) {
	trades := []domain.Trade{
		closedTrade(100),
		closedTrade(-50),
		closedTrade(200),
		closedTrade(-25),
		{RealizedPnL: 999, Open: true}, // open trades are excluded
	}
	m := Analyze(nil, trades, 10000, "60")

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades)
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
	assert.InDelta(t, 300.0/75.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 225.0/4.0, m.Expectancy, 1e-9)
	assert.InDelta(t, 150.0, m.AverageWin, 1e-9)
	assert.InDelta(t, -37.5, m.AverageLoss, 1e-9)
	assert.InDelta(t, 200.0, m.LargestWin, 1e-9)
	assert.InDelta(t, -50.0, m.LargestLoss, 1e-9)
	assert.InDelta(t, 4.0, m.TotalFees, 1e-9)
}

func TestAnalyzeProfitFactorInfinite(t *testing.T) {
	m := Analyze(nil, []domain.Trade{closedTrade(10), closedTrade(20)}, 1000, "60")
	assert.True(t, math.IsInf(m.ProfitFactor, 1))
}

func TestAnalyzeSharpe(t *testing.T) {
	t.Run("flat curve has zero sharpe", func(t *testing.T) {
		curve := equityCurve(t0, 10000, 10000, 10000, 10000)
		assert.Equal(t, 0.0, Analyze(curve, nil, 10000, "60").SharpeRatio)
	})

	t.Run("steady growth has positive sharpe", func(t *testing.T) {
		curve := equityCurve(t0, 10000, 10100, 10250, 10300, 10500, 10550)
		m := Analyze(curve, nil, 10000, "60")
		assert.Greater(t, m.SharpeRatio, 0.0)
		assert.False(t, math.IsNaN(m.SharpeRatio))
	})

	t.Run("annualization scales with interval", func(t *testing.T) {
		curve := equityCurve(t0, 10000, 10100, 10250, 10300, 10500, 10550)
		hourly := Analyze(curve, nil, 10000, "60").SharpeRatio
		daily := Analyze(curve, nil, 10000, "D").SharpeRatio
		// Same per-bar returns, more hourly bars per year.
		assert.Greater(t, hourly, daily)
	})
}

package usecase

import (
	"math"

	"github.com/vitos/strategy_monitor/internal/domain"
)

// Analyze derives summary statistics from an equity curve and trade list.
// It is a pure function: same inputs, same metrics. Every metric is defined
// for the zero-trade case; profit factor is +Inf for a profitable run with
// no losing trades.
func Analyze(equity []domain.EquityPoint, trades []domain.Trade, startingCash float64, interval string) domain.Metrics {
	m := domain.Metrics{FinalEquity: startingCash}
	if len(equity) > 0 {
		m.FinalEquity = equity[len(equity)-1].Equity
	}
	if startingCash > 0 {
		m.TotalReturnPct = (m.FinalEquity/startingCash - 1) * 100
	}
	m.MaxDrawdownPct = maxDrawdown(equity)
	m.SharpeRatio = sharpe(equity, interval)

	var grossProfit, grossLoss, pnlSum float64
	for _, t := range trades {
		if t.Open {
			continue
		}
		m.TotalTrades++
		m.TotalFees += t.Commission
		pnlSum += t.RealizedPnL
		switch {
		case t.RealizedPnL > 0:
			m.WinningTrades++
			grossProfit += t.RealizedPnL
			if t.RealizedPnL > m.LargestWin {
				m.LargestWin = t.RealizedPnL
			}
		case t.RealizedPnL < 0:
			m.LosingTrades++
			grossLoss += -t.RealizedPnL
			if t.RealizedPnL < m.LargestLoss {
				m.LargestLoss = t.RealizedPnL
			}
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
		m.Expectancy = pnlSum / float64(m.TotalTrades)
	}
	if m.WinningTrades > 0 {
		m.AverageWin = grossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = -grossLoss / float64(m.LosingTrades)
	}

	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	}

	return m
}

// maxDrawdown reports the deepest peak-to-trough decline as a negative
// percentage of the peak.
func maxDrawdown(equity []domain.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return -worst * 100
}

// sharpe computes the annualized ratio of mean per-bar return to its
// standard deviation. Zero, not undefined, when the deviation is zero.
func sharpe(equity []domain.EquityPoint, interval string) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, equity[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varSum float64
	for _, r := range returns {
		d := r - mean
		varSum += d * d
	}
	std := math.Sqrt(varSum / float64(len(returns)))
	if std == 0 {
		return 0
	}

	perYear, err := domain.BarsPerYear(interval)
	if err != nil {
		perYear = 1
	}
	return mean / std * math.Sqrt(perYear)
}

package domain

import "time"

// EquityPoint is one mark-to-market sample of account value.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// PortfolioState tracks cash and the open position. It is mutated only by
// the ledger in response to transition events.
type PortfolioState struct {
	Cash         float64       `json:"cash"`
	PositionSize float64       `json:"position_size"`
	PositionSide PositionState `json:"position_side"`
	EquityCurve  []EquityPoint `json:"equity_curve"`
}

// Metrics summarizes a backtest. All fields are defined for the zero-trade
// case; ProfitFactor is +Inf when there are wins and no losses.
type Metrics struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	Expectancy     float64 `json:"expectancy"`
	AverageWin     float64 `json:"average_win"`
	AverageLoss    float64 `json:"average_loss"`
	LargestWin     float64 `json:"largest_win"`
	LargestLoss    float64 `json:"largest_loss"`
	TotalFees      float64 `json:"total_fees"`
	FinalEquity    float64 `json:"final_equity"`
}

// BacktestResult is the immutable result object handed to consumers.
type BacktestResult struct {
	Symbol         string         `json:"symbol"`
	Interval       string         `json:"interval"`
	StrategyID     string         `json:"strategy_id"`
	Trades         []Trade        `json:"trades"`
	EquityCurve    []EquityPoint  `json:"equity_curve"`
	Metrics        Metrics        `json:"metrics"`
	FinalPortfolio PortfolioState `json:"final_portfolio"`
}

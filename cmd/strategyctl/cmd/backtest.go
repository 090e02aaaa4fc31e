package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/strategy_monitor/internal/infrastructure/logger"
	"github.com/vitos/strategy_monitor/internal/infrastructure/marketdata"
	"github.com/vitos/strategy_monitor/internal/strategy"
	"github.com/vitos/strategy_monitor/internal/usecase"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one strategy over historical klines and report metrics",
	Long: `Backtest replays exchange kline history through a strategy and prints
the resulting trade and portfolio metrics.

Example:
  strategyctl backtest -s BTCUSDT -i 60 --strategy ma_cross \
    --param fast_period=9 --param slow_period=21 --days 90`,
	RunE: runBacktest,
}

var (
	btSymbol     string
	btInterval   string
	btStrategy   string
	btParams     []string
	btDays       int
	btCash       float64
	btCommission float64
	btFraction   float64
	btFixedSize  float64
	btEndpoint   string
	btJSON       bool
	btTrades     bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "instrument symbol, e.g. BTCUSDT (required)")
	backtestCmd.Flags().StringVarP(&btInterval, "interval", "i", "60", "kline interval (1, 5, 15, 60, 240, D, ...)")
	backtestCmd.Flags().StringVar(&btStrategy, "strategy", "ma_cross", "strategy id (see 'strategyctl strategies')")
	backtestCmd.Flags().StringArrayVarP(&btParams, "param", "p", nil, "strategy parameter key=value (repeatable)")
	backtestCmd.Flags().IntVar(&btDays, "days", 90, "history window in days")
	backtestCmd.Flags().Float64Var(&btCash, "cash", 10_000, "starting cash")
	backtestCmd.Flags().Float64Var(&btCommission, "commission", 0.001, "commission rate per fill")
	backtestCmd.Flags().Float64Var(&btFraction, "fraction", 0.95, "fraction of cash committed per entry")
	backtestCmd.Flags().Float64Var(&btFixedSize, "size", 0, "fixed position size in units (overrides --fraction)")
	backtestCmd.Flags().StringVar(&btEndpoint, "endpoint", marketdata.BybitBaseURL, "exchange REST endpoint")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "emit the full result as JSON")
	backtestCmd.Flags().BoolVar(&btTrades, "trades", false, "print the individual trades")

	backtestCmd.MarkFlagRequired("symbol")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	params, err := parseParams(btParams)
	if err != nil {
		return err
	}

	log, err := logger.NewConsoleLogger("warn")
	if err != nil {
		return err
	}
	defer log.Sync()

	market := marketdata.NewBybitAdapter(btEndpoint, "")
	svc := usecase.NewBacktestService(market, strategy.NewCatalog(), log)

	result, err := svc.Run(context.Background(), usecase.BacktestRequest{
		Symbol:         btSymbol,
		Interval:       btInterval,
		StrategyID:     btStrategy,
		StrategyParams: params,
		Since:          time.Now().AddDate(0, 0, -btDays),
		StartingCash:   btCash,
		CommissionRate: btCommission,
		Sizing: usecase.SizingPolicy{
			CashFraction: btFraction,
			FixedSize:    btFixedSize,
		},
	})
	if err != nil {
		return err
	}

	if btJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	m := result.Metrics
	fmt.Printf("Backtest %s %s (%s)\n\n", result.Symbol, result.Interval, result.StrategyID)
	fmt.Printf("  Total Return:  %.2f%%\n", m.TotalReturnPct)
	fmt.Printf("  Max Drawdown:  %.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("  Sharpe Ratio:  %.2f\n", m.SharpeRatio)
	fmt.Printf("  Trades:        %d (%d won / %d lost, %.1f%% win rate)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate*100)
	fmt.Printf("  Profit Factor: %.2f\n", m.ProfitFactor)
	fmt.Printf("  Expectancy:    %.2f\n", m.Expectancy)
	fmt.Printf("  Total Fees:    %.2f\n", m.TotalFees)
	fmt.Printf("  Final Equity:  %.2f\n", m.FinalEquity)

	if btTrades {
		fmt.Printf("\nTrades:\n")
		for _, tr := range result.Trades {
			status := "closed"
			if tr.Open {
				status = "open"
			}
			fmt.Printf("  %s %-5s %s @ %.4f -> %.4f  pnl=%.2f (%.2f%%) [%s]\n",
				tr.EntryTime.Format("2006-01-02 15:04"), tr.Side, tr.Symbol,
				tr.EntryPrice, tr.ExitPrice, tr.RealizedPnL, tr.RealizedPnLPct, status)
		}
	}
	return nil
}

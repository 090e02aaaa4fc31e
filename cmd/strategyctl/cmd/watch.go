package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitos/strategy_monitor/internal/infrastructure/logger"
	"github.com/vitos/strategy_monitor/internal/infrastructure/marketdata"
	"github.com/vitos/strategy_monitor/internal/infrastructure/storage"
	"github.com/vitos/strategy_monitor/internal/strategy"
	"github.com/vitos/strategy_monitor/internal/usecase"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage the instruments the monitor daemon evaluates",
}

var (
	watchDB       string
	watchInterval string
	watchStrategy string
	watchParams   []string
	watchEndpoint string
)

var watchAddCmd = &cobra.Command{
	Use:   "add SYMBOL",
	Short: "Promote a symbol/strategy pair to continuous monitoring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(watchParams)
		if err != nil {
			return err
		}
		svc, store, err := newWatchService()
		if err != nil {
			return err
		}
		defer store.Close()

		inst, err := svc.Promote(context.Background(), args[0], watchInterval, watchStrategy, params)
		if err != nil {
			return err
		}
		fmt.Printf("Monitoring %s %s with %s (id %s)\n", inst.Symbol, inst.Interval, inst.StrategyID, inst.ID)
		return nil
	},
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored instruments",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewSQLiteStore(watchDB)
		if err != nil {
			return err
		}
		defer store.Close()

		insts, err := store.ListInstruments(context.Background())
		if err != nil {
			return err
		}
		if len(insts) == 0 {
			fmt.Println("No instruments monitored.")
			return nil
		}
		for _, inst := range insts {
			checked := "never"
			if !inst.LastCheckedAt.IsZero() {
				checked = inst.LastCheckedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-12s %-4s %-20s last checked %s\n",
				inst.ID, inst.Symbol, inst.Interval, inst.StrategyID, checked)
		}
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Stop monitoring an instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := newWatchService()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := svc.Remove(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var watchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one monitoring pass over the whole watch-list now",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := newWatchService()
		if err != nil {
			return err
		}
		defer store.Close()

		statuses, err := svc.RunPass(context.Background())
		if err != nil {
			return err
		}
		for _, st := range statuses {
			if st.Err != nil {
				fmt.Printf("%-12s FAILED: %v\n", st.Symbol, st.Err)
				continue
			}
			if len(st.Signals) == 0 {
				fmt.Printf("%-12s no new signals\n", st.Symbol)
				continue
			}
			for _, sig := range st.Signals {
				fmt.Printf("%-12s %s %s @ %.4f\n",
					st.Symbol, sig.BarTime.Format("2006-01-02 15:04"), sig.Type, sig.Price)
			}
		}
		return nil
	},
}

func newWatchService() (*usecase.MonitorService, *storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(watchDB)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewConsoleLogger("warn")
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	market := marketdata.NewBybitAdapter(watchEndpoint, "")
	svc := usecase.NewMonitorService(store, store, market, strategy.NewCatalog(), log, usecase.MonitorConfig{})
	return svc, store, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchAddCmd, watchListCmd, watchRemoveCmd, watchRunCmd)

	watchCmd.PersistentFlags().StringVarP(&watchDB, "db", "d", "monitor.db", "path to the monitor SQLite DB")
	watchCmd.PersistentFlags().StringVar(&watchEndpoint, "endpoint", marketdata.BybitBaseURL, "exchange REST endpoint")

	watchAddCmd.Flags().StringVarP(&watchInterval, "interval", "i", "60", "kline interval")
	watchAddCmd.Flags().StringVar(&watchStrategy, "strategy", "ma_cross", "strategy id")
	watchAddCmd.Flags().StringArrayVarP(&watchParams, "param", "p", nil, "strategy parameter key=value (repeatable)")
}

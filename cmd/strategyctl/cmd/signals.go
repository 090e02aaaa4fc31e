package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/infrastructure/storage"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List signals recorded by the monitor daemon",
	RunE:  runSignals,
}

var (
	sigDB         string
	sigInstrument string
	sigSinceDays  int
	sigLimit      int
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringVarP(&sigDB, "db", "d", "monitor.db", "path to the monitor SQLite DB")
	signalsCmd.Flags().StringVar(&sigInstrument, "instrument", "", "filter by instrument id")
	signalsCmd.Flags().IntVar(&sigSinceDays, "days", 0, "only signals from the last N days")
	signalsCmd.Flags().IntVar(&sigLimit, "limit", 100, "maximum number of signals")
}

func runSignals(cmd *cobra.Command, args []string) error {
	store, err := storage.NewSQLiteStore(sigDB)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := domain.SignalFilter{
		InstrumentID: sigInstrument,
		Limit:        sigLimit,
	}
	if sigSinceDays > 0 {
		filter.Since = time.Now().AddDate(0, 0, -sigSinceDays)
	}

	sigs, err := store.ListSignals(context.Background(), filter)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		fmt.Println("No signals.")
		return nil
	}
	for _, sig := range sigs {
		shortID := sig.InstrumentID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		fmt.Printf("%s  %-12s %-11s @ %.4f  (detected %s)\n",
			sig.BarTime.Format("2006-01-02 15:04"), shortID, sig.Type,
			sig.Price, sig.DetectedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

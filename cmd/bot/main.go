package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/strategy_monitor/internal/config"
	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/infrastructure/logger"
	"github.com/vitos/strategy_monitor/internal/infrastructure/marketdata"
	"github.com/vitos/strategy_monitor/internal/infrastructure/storage"
	"github.com/vitos/strategy_monitor/internal/strategy"
	"github.com/vitos/strategy_monitor/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Market Data (Bybit)
	market := marketdata.NewBybitAdapter(cfg.Market.RESTEndpoint, cfg.Market.WSEndpoint)
	defer market.Close()

	// 5. Init Monitor Service
	svc := usecase.NewMonitorService(store, store, market, strategy.NewCatalog(), log, usecase.MonitorConfig{
		PassInterval:      cfg.PassInterval(),
		InstrumentTimeout: cfg.InstrumentTimeout(),
		MaxConcurrency:    cfg.Monitor.MaxConcurrency,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)

	// 6. Live bar closes trigger an immediate pass so signals are not
	// delayed by up to one pass interval.
	market.OnBarClose(func(symbol string, bar domain.Bar) {
		log.Debug("Bar closed", zap.String("symbol", symbol), zap.Time("bar", bar.Time))
		if _, err := svc.RunPass(ctx); err != nil {
			log.Error("Pass after bar close failed", zap.Error(err))
		}
	})

	// 7. Keep websocket subscriptions in sync with the watch-list.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		active := make(map[string]bool)
		for {
			insts, err := store.ListInstruments(ctx)
			if err != nil {
				log.Error("Failed to list instruments", zap.Error(err))
			} else {
				byInterval := make(map[string][]string)
				for _, inst := range insts {
					key := inst.Interval + "." + inst.Symbol
					if !active[key] {
						byInterval[inst.Interval] = append(byInterval[inst.Interval], inst.Symbol)
						active[key] = true
					}
				}
				for interval, symbols := range byInterval {
					log.Info("Subscribing to kline stream",
						zap.String("interval", interval), zap.Strings("symbols", symbols))
					if err := market.SubscribeKlines(interval, symbols); err != nil {
						log.Error("Failed to subscribe", zap.Error(err))
						for _, s := range symbols {
							delete(active, interval+"."+s)
						}
					}
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	// 8. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vitos/strategy_monitor/internal/config"
	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/infrastructure/marketdata"
)

// Smoke test for the exchange adapter: fetch recent klines over REST and
// wait for one confirmed bar on the websocket.
func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Bybit market data...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Market.RESTEndpoint)

	adapter := marketdata.NewBybitAdapter(cfg.Market.RESTEndpoint, cfg.Market.WSEndpoint)
	defer adapter.Close()
	ctx := context.Background()

	bars, err := adapter.Fetch(ctx, "BTCUSDT", "60", time.Now().Add(-48*time.Hour))
	if err != nil {
		fmt.Printf("FAIL: kline fetch: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: fetched %d hourly bars\n", len(bars))
	if len(bars) > 0 {
		last := bars[len(bars)-1]
		fmt.Printf("    last close %s @ %.2f\n", last.Time.Format(time.RFC3339), last.Close)
	}

	closed := make(chan domain.Bar, 1)
	adapter.OnBarClose(func(symbol string, bar domain.Bar) {
		select {
		case closed <- bar:
		default:
		}
	})
	if err := adapter.SubscribeKlines("1", []string{"BTCUSDT"}); err != nil {
		fmt.Printf("FAIL: websocket subscribe: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Waiting up to 90s for a confirmed 1m bar...")

	select {
	case bar := <-closed:
		fmt.Printf("OK: bar closed %s @ %.2f\n", bar.Time.Format(time.RFC3339), bar.Close)
	case <-time.After(90 * time.Second):
		fmt.Println("FAIL: no confirmed bar received")
		os.Exit(1)
	}
}

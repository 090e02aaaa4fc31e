package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/strategy_monitor/internal/domain"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/linear"

	// Bybit's kline endpoint caps one page at 1000 candles.
	klinePageLimit = 1000
)

// BybitAdapter serves historical klines over REST and closed-bar events over
// the public websocket. Only public endpoints are used, so no signing.
type BybitAdapter struct {
	baseURL string
	wsURL   string
	client  *http.Client

	wsConn    *websocket.Conn
	callbacks []func(symbol string, bar domain.Bar)
	mu        sync.Mutex

	now func() time.Time
}

func NewBybitAdapter(baseURL, wsURL string) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	if wsURL == "" {
		wsURL = BybitWSURL
	}
	return &BybitAdapter{
		baseURL: baseURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// --- REST API ---

// Fetch returns closed bars strictly after since, in chronological order,
// paging through the kline endpoint until caught up. The still-forming
// candle is excluded so every returned bar is final.
func (b *BybitAdapter) Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]domain.Bar, error) {
	barLen, err := domain.IntervalDuration(interval)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	var start int64
	if !since.IsZero() {
		start = since.UnixMilli() + 1
	}
	for {
		page, err := b.fetchPage(ctx, symbol, interval, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		bars = append(bars, page...)
		if len(page) < klinePageLimit {
			break
		}
		start = page[len(page)-1].Time.UnixMilli() + 1
	}

	// Drop the candle still being formed.
	cutoff := b.now()
	for len(bars) > 0 && bars[len(bars)-1].Time.Add(barLen).After(cutoff) {
		bars = bars[:len(bars)-1]
	}
	return bars, nil
}

func (b *BybitAdapter) fetchPage(ctx context.Context, symbol, interval string, startMs int64) ([]domain.Bar, error) {
	path := fmt.Sprintf("/v5/market/kline?category=linear&symbol=%s&interval=%s&limit=%d&start=%d",
		symbol, interval, klinePageLimit, startMs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var result struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List [][]string `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("bybit kline error: %s", result.RetMsg)
	}

	var bars []domain.Bar
	for _, raw := range result.Result.List {
		// Format: [startTime, open, high, low, close, volume, turnover]
		if len(raw) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(raw[0], 10, 64)
		open, _ := strconv.ParseFloat(raw[1], 64)
		high, _ := strconv.ParseFloat(raw[2], 64)
		low, _ := strconv.ParseFloat(raw[3], 64)
		closePrice, _ := strconv.ParseFloat(raw[4], 64)
		volume, _ := strconv.ParseFloat(raw[5], 64)

		bars = append(bars, domain.Bar{
			Time:   time.UnixMilli(ts).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	// Bybit returns newest first, reverse to chronological.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// --- WebSocket ---

// OnBarClose registers a callback invoked once per confirmed kline.
func (b *BybitAdapter) OnBarClose(callback func(symbol string, bar domain.Bar)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// SubscribeKlines opens the websocket (if needed) and subscribes to the
// kline stream for the given symbols at one interval.
func (b *BybitAdapter) SubscribeKlines(interval string, symbols []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.wsConn == nil {
		c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
		if err != nil {
			return err
		}
		b.wsConn = c
		go b.readLoop(c)
	}
	return b.subscribe(interval, symbols)
}

func (b *BybitAdapter) subscribe(interval string, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	args := make([]interface{}, len(symbols))
	for i, s := range symbols {
		args[i] = "kline." + interval + "." + s
	}
	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	}
	return b.wsConn.WriteJSON(subMsg)
}

func (b *BybitAdapter) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		b.mu.Lock()
		if b.wsConn == conn {
			b.wsConn = nil
		}
		b.mu.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event struct {
			Topic string `json:"topic"`
			Data  []struct {
				Start    int64  `json:"start"`
				Open     string `json:"open"`
				High     string `json:"high"`
				Low      string `json:"low"`
				Close    string `json:"close"`
				Volume   string `json:"volume"`
				Confirm  bool   `json:"confirm"`
				Interval string `json:"interval"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if !strings.HasPrefix(event.Topic, "kline.") {
			continue
		}
		// Topic format: kline.{interval}.{symbol}
		parts := strings.SplitN(event.Topic, ".", 3)
		if len(parts) != 3 {
			continue
		}
		symbol := parts[2]

		for _, k := range event.Data {
			if !k.Confirm {
				continue
			}
			open, _ := strconv.ParseFloat(k.Open, 64)
			high, _ := strconv.ParseFloat(k.High, 64)
			low, _ := strconv.ParseFloat(k.Low, 64)
			closePrice, _ := strconv.ParseFloat(k.Close, 64)
			volume, _ := strconv.ParseFloat(k.Volume, 64)

			bar := domain.Bar{
				Time:   time.UnixMilli(k.Start).UTC(),
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePrice,
				Volume: volume,
			}

			b.mu.Lock()
			callbacks := make([]func(string, domain.Bar), len(b.callbacks))
			copy(callbacks, b.callbacks)
			b.mu.Unlock()

			for _, cb := range callbacks {
				cb(symbol, bar)
			}
		}
	}
}

// Close shuts the websocket down if one is open.
func (b *BybitAdapter) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wsConn == nil {
		return nil
	}
	err := b.wsConn.Close()
	b.wsConn = nil
	return err
}

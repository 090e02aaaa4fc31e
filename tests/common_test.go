package tests

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/vitos/strategy_monitor/internal/domain"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// MockMarket serves synthetic bar histories per symbol and honors the
// since cursor the way the exchange adapter does.
type MockMarket struct {
	mu   sync.Mutex
	Bars map[string][]domain.Bar
	Errs map[string]error
}

func NewMockMarket() *MockMarket {
	return &MockMarket{
		Bars: make(map[string][]domain.Bar),
		Errs: make(map[string]error),
	}
}

func (m *MockMarket) Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]domain.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	var out []domain.Bar
	for _, b := range m.Bars[symbol] {
		if b.Time.After(since) {
			out = append(out, b)
		}
	}
	return out, nil
}

// sineBars generates a smooth oscillating price series, enough cycles for
// crossover strategies to trade several round trips.
func sineBars(n int, base, amplitude float64, period int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := 0; i < n; i++ {
		price := base + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period))
		bars[i] = domain.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}

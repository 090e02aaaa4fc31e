package indicator

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
)

// SMA is a streaming simple moving average over closing prices. It keeps a
// rolling sum and a fixed ring of the last period closes, so extending the
// series by one bar costs O(1) instead of re-summing the window.
type SMA struct {
	period int
	ring   []float64
	head   int
	count  int
	sum    float64
}

func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		ring:   make([]float64, period),
	}
}

func (m *SMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SMA) Warmup() int {
	return m.period
}

func (m *SMA) Reset() {
	m.head = 0
	m.count = 0
	m.sum = 0
	for i := range m.ring {
		m.ring[i] = 0
	}
}

func (m *SMA) Update(b domain.Bar) {
	if m.count >= m.period {
		m.sum -= m.ring[m.head]
	} else {
		m.count++
	}
	m.ring[m.head] = b.Close
	m.sum += b.Close
	m.head = (m.head + 1) % m.period
}

func (m *SMA) Ready() bool {
	return m.count >= m.period
}

func (m *SMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}

// EMA is a streaming exponential moving average. During warmup it
// accumulates a simple average, which then seeds the standard recurrence.
type EMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *EMA) Warmup() int {
	return e.period
}

func (e *EMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *EMA) Update(b domain.Bar) {
	e.update(b.Close)
}

// update lets composite indicators (MACD) feed derived series through the
// same recurrence.
func (e *EMA) update(v float64) {
	if e.count < e.period {
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (v-e.ema)*e.multiplier + e.ema
}

func (e *EMA) Ready() bool {
	return e.count >= e.period
}

func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

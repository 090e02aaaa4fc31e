package indicator

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
)

// MACD combines a fast and slow EMA of closes with a signal-line EMA of
// their difference. Value() returns the MACD line; Signal() the signal
// line; Histogram() their difference.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Warmup() int {
	return m.slow.period + m.signal.period
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MACD) Update(b domain.Bar) {
	m.fast.Update(b)
	m.slow.Update(b)
	// The signal line only starts once the slow EMA is seeded; feeding it
	// warmup garbage would bias its seed average.
	if m.slow.Ready() {
		m.signal.update(m.fast.Value() - m.slow.Value())
	}
}

func (m *MACD) Ready() bool {
	return m.slow.Ready() && m.signal.Ready()
}

func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

func (m *MACD) Signal() float64 {
	if !m.Ready() {
		return 0
	}
	return m.signal.Value()
}

func (m *MACD) Histogram() float64 {
	if !m.Ready() {
		return 0
	}
	return m.Value() - m.Signal()
}

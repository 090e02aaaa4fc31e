package indicator

import (
	"fmt"
	"math"

	"github.com/vitos/strategy_monitor/internal/domain"
)

// ATR is a streaming Average True Range with Wilder smoothing. The first
// bar only establishes the previous close, so warmup is period+1 bars.
type ATR struct {
	period   int
	atr      float64
	prev     float64
	havePrev bool
	count    int
	seedSum  float64
}

func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	return a.period + 1
}

func (a *ATR) Reset() {
	a.atr = 0
	a.prev = 0
	a.havePrev = false
	a.count = 0
	a.seedSum = 0
}

func (a *ATR) Update(b domain.Bar) {
	if !a.havePrev {
		a.prev = b.Close
		a.havePrev = true
		return
	}

	tr := math.Max(b.High-b.Low,
		math.Max(math.Abs(b.High-a.prev), math.Abs(b.Low-a.prev)))
	a.prev = b.Close

	if a.count < a.period {
		a.seedSum += tr
		a.count++
		if a.count == a.period {
			a.atr = a.seedSum / float64(a.period)
		}
		return
	}

	p := float64(a.period)
	a.atr = (a.atr*(p-1) + tr) / p
	a.count++
}

func (a *ATR) Ready() bool {
	return a.count >= a.period
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}

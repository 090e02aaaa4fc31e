package indicator

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
)

// RSI is a streaming Relative Strength Index using Wilder's smoothing.
// Warmup is period+1 bars: the first bar only establishes the previous
// close, after which gains and losses start accumulating.
type RSI struct {
	period   int
	avgGain  float64
	avgLoss  float64
	prev     float64
	havePrev bool
	count    int
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.avgGain = 0
	r.avgLoss = 0
	r.prev = 0
	r.havePrev = false
	r.count = 0
}

func (r *RSI) Update(b domain.Bar) {
	if !r.havePrev {
		r.prev = b.Close
		r.havePrev = true
		return
	}

	change := b.Close - r.prev
	r.prev = b.Close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if r.count < r.period {
		// Seed phase: plain average of the first period changes.
		r.avgGain += gain / float64(r.period)
		r.avgLoss += loss / float64(r.period)
		r.count++
		return
	}

	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.count++
}

func (r *RSI) Ready() bool {
	return r.count >= r.period
}

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

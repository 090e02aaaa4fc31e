package indicator

import (
	"fmt"
	"math"

	"github.com/vitos/strategy_monitor/internal/domain"
)

// Bollinger maintains rolling mean and standard deviation of closes using
// incremental sum and sum-of-squares over a fixed ring, so one new bar is
// O(1) regardless of window length.
//
// Value() returns the middle band; Upper() and Lower() return the bands at
// the configured width in standard deviations.
type Bollinger struct {
	period int
	width  float64
	ring   []float64
	head   int
	count  int
	sum    float64
	sumSq  float64
}

func NewBollinger(period int, width float64) *Bollinger {
	return &Bollinger{
		period: period,
		width:  width,
		ring:   make([]float64, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.width)
}

func (b *Bollinger) Warmup() int {
	return b.period
}

func (b *Bollinger) Reset() {
	b.head = 0
	b.count = 0
	b.sum = 0
	b.sumSq = 0
	for i := range b.ring {
		b.ring[i] = 0
	}
}

func (b *Bollinger) Update(bar domain.Bar) {
	v := bar.Close
	if b.count >= b.period {
		old := b.ring[b.head]
		b.sum -= old
		b.sumSq -= old * old
	} else {
		b.count++
	}
	b.ring[b.head] = v
	b.sum += v
	b.sumSq += v * v
	b.head = (b.head + 1) % b.period
}

func (b *Bollinger) Ready() bool {
	return b.count >= b.period
}

// Value returns the middle band (the rolling mean).
func (b *Bollinger) Value() float64 {
	if !b.Ready() {
		return 0
	}
	return b.sum / float64(b.period)
}

func (b *Bollinger) stddev() float64 {
	n := float64(b.period)
	mean := b.sum / n
	variance := b.sumSq/n - mean*mean
	// Incremental sum-of-squares can go slightly negative from float error.
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func (b *Bollinger) Upper() float64 {
	if !b.Ready() {
		return 0
	}
	return b.Value() + b.width*b.stddev()
}

func (b *Bollinger) Lower() float64 {
	if !b.Ready() {
		return 0
	}
	return b.Value() - b.width*b.stddev()
}

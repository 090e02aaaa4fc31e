package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/strategy_monitor/internal/domain"
)

func barsFromCloses(closes ...float64) []domain.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

func TestSMAStreaming(t *testing.T) {
	bars := barsFromCloses(102, 105, 106, 108, 110)

	t.Run("warmup then rolling window", func(t *testing.T) {
		ma := NewSMA(3)
		assert.Equal(t, "SMA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())

		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.False(t, ma.Ready())

		ma.Update(bars[2])
		assert.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 1e-9)

		ma.Update(bars[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 1e-9)

		ma.Update(bars[4])
		assert.InDelta(t, (106.0+108.0+110.0)/3.0, ma.Value(), 1e-9)
	})

	t.Run("reset", func(t *testing.T) {
		ma := NewSMA(2)
		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())
	})

	t.Run("rolling sum matches re-summation over a long series", func(t *testing.T) {
		// The streaming sum must not drift from a full recomputation.
		ma := NewSMA(5)
		closes := make([]float64, 500)
		for i := range closes {
			closes[i] = 100 + float64(i%37)*0.13
		}
		series := barsFromCloses(closes...)
		for i, b := range series {
			ma.Update(b)
			if i >= 4 {
				sum := 0.0
				for j := i - 4; j <= i; j++ {
					sum += closes[j]
				}
				assert.InDelta(t, sum/5, ma.Value(), 1e-6)
			}
		}
	})
}

func TestEMAStreaming(t *testing.T) {
	bars := barsFromCloses(102, 105, 106, 108, 110, 111)

	e := NewEMA(3)
	assert.Equal(t, 3, e.Warmup())

	e.Update(bars[0])
	e.Update(bars[1])
	assert.False(t, e.Ready())

	// Seeds with the SMA of the first 3 closes.
	e.Update(bars[2])
	assert.True(t, e.Ready())
	seed := (102.0 + 105.0 + 106.0) / 3.0
	assert.InDelta(t, seed, e.Value(), 1e-9)

	// Then applies the standard recurrence.
	mult := 2.0 / 4.0
	want := (108.0-seed)*mult + seed
	e.Update(bars[3])
	assert.InDelta(t, want, e.Value(), 1e-9)
}

func TestRSI(t *testing.T) {
	t.Run("all gains saturates at 100", func(t *testing.T) {
		r := NewRSI(5)
		for _, b := range barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8) {
			r.Update(b)
		}
		assert.True(t, r.Ready())
		assert.Equal(t, 100.0, r.Value())
	})

	t.Run("all losses stays near 0", func(t *testing.T) {
		r := NewRSI(5)
		for _, b := range barsFromCloses(8, 7, 6, 5, 4, 3, 2, 1) {
			r.Update(b)
		}
		assert.True(t, r.Ready())
		assert.InDelta(t, 0.0, r.Value(), 1e-9)
	})

	t.Run("not ready before period+1 bars", func(t *testing.T) {
		r := NewRSI(5)
		assert.Equal(t, 6, r.Warmup())
		for _, b := range barsFromCloses(1, 2, 3, 4, 5) {
			r.Update(b)
		}
		assert.False(t, r.Ready())
	})
}

func TestBollinger(t *testing.T) {
	b := NewBollinger(4, 2.0)
	assert.Equal(t, "BB(4,2.0)", b.Name())

	for _, bar := range barsFromCloses(10, 12, 14, 16) {
		b.Update(bar)
	}
	assert.True(t, b.Ready())

	// mean = 13, variance = ((9)+(1)+(1)+(9))/4 = 5
	assert.InDelta(t, 13.0, b.Value(), 1e-9)
	sd := 2.2360679775
	assert.InDelta(t, 13.0+2*sd, b.Upper(), 1e-6)
	assert.InDelta(t, 13.0-2*sd, b.Lower(), 1e-6)

	t.Run("constant series has zero width", func(t *testing.T) {
		c := NewBollinger(3, 2.0)
		for _, bar := range barsFromCloses(50, 50, 50, 50, 50) {
			c.Update(bar)
		}
		assert.InDelta(t, c.Value(), c.Upper(), 1e-9)
		assert.InDelta(t, c.Value(), c.Lower(), 1e-9)
	})
}

func TestATR(t *testing.T) {
	a := NewATR(3)
	assert.Equal(t, 4, a.Warmup())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []domain.Bar{
		{Time: base, High: 12, Low: 8, Close: 10},
		{Time: base.Add(time.Hour), High: 13, Low: 9, Close: 11},
		{Time: base.Add(2 * time.Hour), High: 14, Low: 10, Close: 12},
		{Time: base.Add(3 * time.Hour), High: 15, Low: 11, Close: 13},
	}
	for _, b := range bars {
		a.Update(b)
	}
	assert.True(t, a.Ready())
	// Each bar after the first has TR = 4 (range dominates the gaps).
	assert.InDelta(t, 4.0, a.Value(), 1e-9)
}

func TestMACDCross(t *testing.T) {
	m := NewMACD(3, 6, 3)
	assert.False(t, m.Ready())

	// Rising series: fast EMA above slow, MACD line positive.
	for _, b := range barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12) {
		m.Update(b)
	}
	assert.True(t, m.Ready())
	assert.Greater(t, m.Value(), 0.0)
	assert.InDelta(t, m.Value()-m.Signal(), m.Histogram(), 1e-12)
}

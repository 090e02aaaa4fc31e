package domain

import (
	"fmt"
	"time"
)

// Bar is one OHLCV sample for a fixed interval. Bars are immutable once
// ingested; sequences are ordered by strictly increasing Time.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Supported bar intervals, in the exchange's kline notation.
var intervalDurations = map[string]time.Duration{
	"1":   time.Minute,
	"3":   3 * time.Minute,
	"5":   5 * time.Minute,
	"15":  15 * time.Minute,
	"30":  30 * time.Minute,
	"60":  time.Hour,
	"120": 2 * time.Hour,
	"240": 4 * time.Hour,
	"D":   24 * time.Hour,
	"W":   7 * 24 * time.Hour,
}

// IntervalDuration returns the wall-clock length of one bar for the given
// kline interval string.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervalDurations[interval]
	if !ok {
		return 0, fmt.Errorf("unknown interval %q", interval)
	}
	return d, nil
}

// BarsPerYear returns the sampling frequency used to annualize per-bar
// statistics (e.g. the Sharpe ratio).
func BarsPerYear(interval string) (float64, error) {
	d, err := IntervalDuration(interval)
	if err != nil {
		return 0, err
	}
	const year = 365 * 24 * time.Hour
	return float64(year) / float64(d), nil
}

// ValidateBars checks that a fetched sequence is usable by the engine:
// non-decreasing is not enough, timestamps must strictly increase.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar sequence not strictly increasing at index %d (%s then %s)",
				i, bars[i-1].Time, bars[i].Time)
		}
	}
	return nil
}

// Package indicator provides streaming technical indicators. Every indicator
// consumes closed bars one at a time and keeps O(1) per-bar state, so the
// same implementation serves finite backtests and long-running monitoring.
package indicator

import "github.com/vitos/strategy_monitor/internal/domain"

// Indicator computes a single streaming value from bars.
//
// The value at any point depends only on bars seen so far (no look-ahead).
// Until Warmup() bars have been consumed, Ready() is false and Value() is
// meaningless; callers must gate on Ready() rather than on a zero sentinel.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many bars are needed before Ready() can be true.
	Warmup() int

	// Update consumes the next closed bar.
	Update(b domain.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current indicator value. Callers must check Ready().
	Value() float64

	// Reset clears all internal state.
	Reset()
}

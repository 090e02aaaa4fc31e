package domain

import "errors"

var (
	// ErrDataUnavailable means the market data source returned no bars for
	// the requested range. Backtests fail fast on it; the monitor marks the
	// instrument's pass as skipped and moves on.
	ErrDataUnavailable = errors.New("no market data available")

	// ErrInsufficientFunds means an open was rejected because cash does not
	// cover the notional plus commission. The position stays FLAT.
	ErrInsufficientFunds = errors.New("insufficient funds for position open")

	// ErrPredicateEvaluation means a strategy's rule set could not be built
	// or evaluated (malformed parameters, misconfigured indicator). It fails
	// only the affected instrument.
	ErrPredicateEvaluation = errors.New("predicate evaluation failed")

	// ErrUnknownStrategy is returned by the catalog for an unregistered id.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

package strategy

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/indicator"
)

const MACrossID = "ma_cross"

// MACrossConfig parameterizes the moving-average crossover rules.
// Parameters: fast_period, slow_period, and use_ema (nonzero selects
// exponential averages).
type MACrossConfig struct {
	FastPeriod int  `validate:"gt=0"`
	SlowPeriod int  `validate:"gt=0,gtfield=FastPeriod"`
	UseEMA     bool
}

// MACross goes long on a bull cross of the fast average over the slow one,
// short on a bear cross, and exits on the opposite cross.
type MACross struct {
	cfg  MACrossConfig
	fast indicator.Indicator
	slow indicator.Indicator

	lastDiff     float64
	haveLastDiff bool
}

func NewMACross(params map[string]float64) (Rules, error) {
	cfg := MACrossConfig{
		FastPeriod: paramInt(params, "fast_period", 10),
		SlowPeriod: paramInt(params, "slow_period", 30),
		UseEMA:     paramFloat(params, "use_ema", 0) != 0,
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid ma_cross parameters: %w", err)
	}

	var fast, slow indicator.Indicator
	if cfg.UseEMA {
		fast = indicator.NewEMA(cfg.FastPeriod)
		slow = indicator.NewEMA(cfg.SlowPeriod)
	} else {
		fast = indicator.NewSMA(cfg.FastPeriod)
		slow = indicator.NewSMA(cfg.SlowPeriod)
	}
	return &MACross{cfg: cfg, fast: fast, slow: slow}, nil
}

func (s *MACross) ID() string {
	return MACrossID
}

func (s *MACross) Warmup() int {
	// One extra bar beyond the slow average: a cross needs a previous diff.
	return s.cfg.SlowPeriod + 1
}

func (s *MACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
}

func (s *MACross) Evaluate(b domain.Bar) (Evaluation, error) {
	s.fast.Update(b)
	s.slow.Update(b)

	if !s.fast.Ready() || !s.slow.Ready() {
		return Evaluation{}, nil
	}

	diff := s.fast.Value() - s.slow.Value()
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return Evaluation{}, nil
	}

	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	ev := Evaluation{
		Ready: true,
		Values: map[string]float64{
			"fast": s.fast.Value(),
			"slow": s.slow.Value(),
		},
	}
	switch {
	case bullCross:
		ev.LongEntry = true
		ev.ShortExit = true
		ev.Reason = "BullCross"
	case bearCross:
		ev.ShortEntry = true
		ev.LongExit = true
		ev.Reason = "BearCross"
	}
	return ev, nil
}

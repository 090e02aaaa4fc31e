package strategy

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/indicator"
)

const MACDTrendID = "macd_trend"

// MACDTrendConfig parameterizes the MACD trend-following rules.
// Parameters: fast_period, slow_period, signal_period.
type MACDTrendConfig struct {
	FastPeriod   int `validate:"gt=0"`
	SlowPeriod   int `validate:"gt=0,gtfield=FastPeriod"`
	SignalPeriod int `validate:"gt=0"`
}

// MACDTrend goes long when the MACD line crosses above its signal line and
// short on the opposite cross; each cross also exits the other side.
type MACDTrend struct {
	cfg  MACDTrendConfig
	macd *indicator.MACD

	lastHist     float64
	haveLastHist bool
}

func NewMACDTrend(params map[string]float64) (Rules, error) {
	cfg := MACDTrendConfig{
		FastPeriod:   paramInt(params, "fast_period", 12),
		SlowPeriod:   paramInt(params, "slow_period", 26),
		SignalPeriod: paramInt(params, "signal_period", 9),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid macd_trend parameters: %w", err)
	}
	return &MACDTrend{
		cfg:  cfg,
		macd: indicator.NewMACD(cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod),
	}, nil
}

func (s *MACDTrend) ID() string {
	return MACDTrendID
}

func (s *MACDTrend) Warmup() int {
	return s.macd.Warmup() + 1
}

func (s *MACDTrend) Reset() {
	s.macd.Reset()
	s.lastHist = 0
	s.haveLastHist = false
}

func (s *MACDTrend) Evaluate(b domain.Bar) (Evaluation, error) {
	s.macd.Update(b)
	if !s.macd.Ready() {
		return Evaluation{}, nil
	}

	hist := s.macd.Histogram()
	if !s.haveLastHist {
		s.lastHist = hist
		s.haveLastHist = true
		return Evaluation{}, nil
	}

	bullCross := hist > 0 && s.lastHist <= 0
	bearCross := hist < 0 && s.lastHist >= 0
	s.lastHist = hist

	ev := Evaluation{
		Ready: true,
		Values: map[string]float64{
			"macd":      s.macd.Value(),
			"signal":    s.macd.Signal(),
			"histogram": hist,
		},
	}
	switch {
	case bullCross:
		ev.LongEntry = true
		ev.ShortExit = true
		ev.Reason = "SignalLineBullCross"
	case bearCross:
		ev.ShortEntry = true
		ev.LongExit = true
		ev.Reason = "SignalLineBearCross"
	}
	return ev, nil
}

package strategy

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/indicator"
)

const RSIReversionID = "rsi_reversion"

// RSIReversionConfig parameterizes the mean-reversion rules. Parameters:
// period, oversold, overbought.
type RSIReversionConfig struct {
	Period     int     `validate:"gt=1"`
	Oversold   float64 `validate:"gt=0,lt=50"`
	Overbought float64 `validate:"gt=50,lt=100"`
}

// RSIReversion buys when RSI drops below the oversold threshold, sells short
// when it rises above the overbought threshold, and exits either side when
// RSI returns across the midline.
type RSIReversion struct {
	cfg RSIReversionConfig
	rsi *indicator.RSI
}

func NewRSIReversion(params map[string]float64) (Rules, error) {
	cfg := RSIReversionConfig{
		Period:     paramInt(params, "period", 14),
		Oversold:   paramFloat(params, "oversold", 30),
		Overbought: paramFloat(params, "overbought", 70),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid rsi_reversion parameters: %w", err)
	}
	return &RSIReversion{cfg: cfg, rsi: indicator.NewRSI(cfg.Period)}, nil
}

func (s *RSIReversion) ID() string {
	return RSIReversionID
}

func (s *RSIReversion) Warmup() int {
	return s.rsi.Warmup()
}

func (s *RSIReversion) Reset() {
	s.rsi.Reset()
}

func (s *RSIReversion) Evaluate(b domain.Bar) (Evaluation, error) {
	s.rsi.Update(b)
	if !s.rsi.Ready() {
		return Evaluation{}, nil
	}

	v := s.rsi.Value()
	ev := Evaluation{
		Ready:  true,
		Values: map[string]float64{"rsi": v},
	}
	ev.LongEntry = v < s.cfg.Oversold
	ev.ShortEntry = v > s.cfg.Overbought
	ev.LongExit = v >= 50
	ev.ShortExit = v <= 50

	switch {
	case ev.LongEntry:
		ev.Reason = "Oversold"
	case ev.ShortEntry:
		ev.Reason = "Overbought"
	case ev.LongExit || ev.ShortExit:
		ev.Reason = "MidlineRecovery"
	}
	return ev, nil
}

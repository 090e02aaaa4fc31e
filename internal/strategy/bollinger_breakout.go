package strategy

import (
	"fmt"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/indicator"
)

const BollingerBreakoutID = "bollinger_breakout"

// BollingerBreakoutConfig parameterizes the band-breakout rules.
// Parameters: period, width (standard deviations).
type BollingerBreakoutConfig struct {
	Period int     `validate:"gt=1"`
	Width  float64 `validate:"gt=0"`
}

// BollingerBreakout goes long when the close breaks above the upper band,
// short when it breaks below the lower band, and exits when the close
// returns across the middle band.
type BollingerBreakout struct {
	cfg   BollingerBreakoutConfig
	bands *indicator.Bollinger
}

func NewBollingerBreakout(params map[string]float64) (Rules, error) {
	cfg := BollingerBreakoutConfig{
		Period: paramInt(params, "period", 20),
		Width:  paramFloat(params, "width", 2.0),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid bollinger_breakout parameters: %w", err)
	}
	return &BollingerBreakout{cfg: cfg, bands: indicator.NewBollinger(cfg.Period, cfg.Width)}, nil
}

func (s *BollingerBreakout) ID() string {
	return BollingerBreakoutID
}

func (s *BollingerBreakout) Warmup() int {
	return s.bands.Warmup()
}

func (s *BollingerBreakout) Reset() {
	s.bands.Reset()
}

func (s *BollingerBreakout) Evaluate(b domain.Bar) (Evaluation, error) {
	s.bands.Update(b)
	if !s.bands.Ready() {
		return Evaluation{}, nil
	}

	mid, upper, lower := s.bands.Value(), s.bands.Upper(), s.bands.Lower()
	ev := Evaluation{
		Ready: true,
		Values: map[string]float64{
			"mid":   mid,
			"upper": upper,
			"lower": lower,
		},
	}

	ev.LongEntry = b.Close > upper
	ev.ShortEntry = b.Close < lower
	ev.LongExit = b.Close < mid
	ev.ShortExit = b.Close > mid

	switch {
	case ev.LongEntry:
		ev.Reason = "UpperBandBreak"
	case ev.ShortEntry:
		ev.Reason = "LowerBandBreak"
	case ev.LongExit || ev.ShortExit:
		ev.Reason = "MidBandRevert"
	}
	return ev, nil
}

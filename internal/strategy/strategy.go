// Package strategy defines the closed set of rule configurations the engine
// can execute. A strategy is not a subclass hierarchy: it is an id plus a
// parameter map, resolved through an explicit catalog into a Rules value
// holding its own indicator state.
package strategy

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/vitos/strategy_monitor/internal/domain"
)

// Evaluation is the outcome of feeding one bar to a rule set. The engine
// only sees the four predicate booleans plus context for logging; it never
// inspects indicator internals.
type Evaluation struct {
	// Ready is false while any underlying indicator is still warming up.
	// The engine must not act on a not-ready evaluation.
	Ready bool

	LongEntry  bool
	ShortEntry bool
	LongExit   bool
	ShortExit  bool

	// Reason names the predicate that fired, e.g. "BullCross".
	Reason string
	// Values carries the indicator readings behind the decision.
	Values map[string]float64
}

// Rules is the shared capability every concrete strategy implements.
// Evaluate consumes the next closed bar (updating indicator state) and
// reports which predicates hold on it.
type Rules interface {
	ID() string
	Warmup() int
	Evaluate(b domain.Bar) (Evaluation, error)
	Reset()
}

// Factory builds a Rules value from a raw parameter map.
type Factory func(params map[string]float64) (Rules, error)

// Catalog maps strategy ids to factories. It is passed explicitly into the
// services that need it; there is no process-wide registry.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog returns a catalog with the built-in rule sets registered.
func NewCatalog() *Catalog {
	c := &Catalog{factories: make(map[string]Factory)}
	c.Register(MACrossID, NewMACross)
	c.Register(RSIReversionID, NewRSIReversion)
	c.Register(BollingerBreakoutID, NewBollingerBreakout)
	c.Register(MACDTrendID, NewMACDTrend)
	return c
}

func (c *Catalog) Register(id string, f Factory) {
	c.factories[id] = f
}

// Resolve builds a fresh Rules value for the id. Unknown ids and malformed
// parameters are reported as predicate-level failures so a scheduler pass
// can skip just the affected instrument.
func (c *Catalog) Resolve(id string, params map[string]float64) (Rules, error) {
	f, ok := c.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, id)
	}
	rules, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("%w: strategy %q: %v", domain.ErrPredicateEvaluation, id, err)
	}
	return rules, nil
}

// IDs lists the registered strategy ids in stable order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.factories))
	for id := range c.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var validate = validator.New()

// paramInt reads an integer parameter, falling back to def when absent.
func paramInt(params map[string]float64, key string, def int) int {
	if v, ok := params[key]; ok {
		return int(v)
	}
	return def
}

func paramFloat(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// Environment rules: resource regrowth and seasonal modulation. They
// touch model-level counters and the resource field, never agents.
package rules

import (
	"math"

	"github.com/systemshift/llm-abm/internal/sim"
)

// Counters written by seasonal_change and read by resource_growth.
const (
	SeasonFactorCounter = "season_factor"
	SeasonCounter       = "season"
)

func init() {
	sim.MustRegister(sim.Spec{
		Name:     "resource_growth",
		Category: sim.CategoryEnvironment,
		Desc:     "Grows the shared resource pool each tick, and regrows the resource field toward its cap when one exists. Growth scales with the season factor when a seasonal rule runs.",
		Params: []sim.ParamSpec{
			{Name: "counter", Type: sim.ParamString, Default: "resources", Desc: "environment counter to grow"},
			{Name: "rate", Type: sim.ParamFloat, Default: 5.0, Min: ptr(0), Desc: "pool growth per tick"},
			{Name: "max", Type: sim.ParamFloat, Default: 0.0, Min: ptr(0), Desc: "pool ceiling; 0 means uncapped"},
		},
		Apply: resourceGrowth,
	})
	sim.MustRegister(sim.Spec{
		Name:     "seasonal_change",
		Category: sim.CategoryEnvironment,
		Desc:     "Advances a sinusoidal season cycle, publishing a growth factor and the current season quarter as environment counters.",
		Params: []sim.ParamSpec{
			{Name: "period", Type: sim.ParamInt, Default: 40, Min: ptr(1), Desc: "ticks per full cycle"},
			{Name: "amplitude", Type: sim.ParamFloat, Default: 0.5, Min: ptr(0), Max: ptr(1), Desc: "swing of the growth factor around 1"},
		},
		Apply: seasonalChange,
	})
}

func resourceGrowth(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	factor := 1.0
	if next.Env.Has(SeasonFactorCounter) {
		factor = next.Env.Counter(SeasonFactorCounter)
	}

	if next.Env.Field != nil {
		next.Env.Field.Grow(factor)
	}

	counter := p.Str("counter")
	grown := next.Env.AddCounter(counter, p.Float("rate")*factor)
	if ceiling := p.Float("max"); ceiling > 0 && grown > ceiling {
		next.Env.SetCounter(counter, ceiling)
	}
	return next, nil
}

func seasonalChange(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	period := p.Int("period")
	amplitude := p.Float("amplitude")

	phase := float64(next.Step%period) / float64(period)
	next.Env.SetCounter(SeasonFactorCounter, 1+amplitude*math.Sin(2*math.Pi*phase))
	next.Env.SetCounter(SeasonCounter, float64((next.Step%period)*4/period))
	return next, nil
}

// SeasonName names a season quarter for logs and watch output.
func SeasonName(quarter int) string {
	switch quarter {
	case 0:
		return "spring"
	case 1:
		return "summer"
	case 2:
		return "autumn"
	default:
		return "winter"
	}
}

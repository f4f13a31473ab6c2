// Model-level environment: named counters shared by interaction rules
// (e.g. a resource pool) and an optional per-cell resource field laid
// out from noise at model creation.
package sim

import (
	"maps"
	"slices"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/grid"
)

// Environment holds the non-agent state rules may read and adjust.
type Environment struct {
	Counters map[string]float64 `json:"counters,omitempty"`
	Field    *ResourceField     `json:"field,omitempty"`
}

func newEnvironment(cfg config.EnvironmentConfig, g grid.Grid, seed int64) *Environment {
	env := &Environment{Counters: make(map[string]float64, len(cfg.Counters))}
	maps.Copy(env.Counters, cfg.Counters)
	if cfg.Field != nil {
		env.Field = generateField(g, *cfg.Field, seed)
	}
	return env
}

// Counter returns a named counter, zero when absent.
func (e *Environment) Counter(name string) float64 {
	return e.Counters[name]
}

// Has reports whether a counter exists.
func (e *Environment) Has(name string) bool {
	_, ok := e.Counters[name]
	return ok
}

// SetCounter stores a counter value.
func (e *Environment) SetCounter(name string, v float64) {
	e.Counters[name] = v
}

// AddCounter adjusts a counter by delta and returns the new value.
func (e *Environment) AddCounter(name string, delta float64) float64 {
	e.Counters[name] += delta
	return e.Counters[name]
}

// Clone deep-copies the environment.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	c := &Environment{Counters: maps.Clone(e.Counters)}
	if e.Field != nil {
		f := *e.Field
		f.Cells = slices.Clone(e.Field.Cells)
		c.Field = &f
	}
	return c
}

// ResourceField is a per-cell resource layer, row-major. Cells hold
// between 0 and Cap; Regen is the fraction of the deficit restored per
// growth application.
type ResourceField struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Cap    float64   `json:"cap"`
	Regen  float64   `json:"regen"`
	Cells  []float64 `json:"cells"`
}

// generateField lays out initial resources from layered noise so the
// world has coherent rich and poor regions rather than white noise.
func generateField(g grid.Grid, fc config.FieldConfig, seed int64) *ResourceField {
	noise := opensimplex.NewNormalized(seed)
	f := &ResourceField{
		Width:  g.Width,
		Height: g.Height,
		Cap:    fc.Cap,
		Regen:  fc.Regen,
		Cells:  make([]float64, g.Width*g.Height),
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := octaveNoise(noise, float64(x), float64(y), 3, fc.Scale, 0.5)
			f.Cells[y*g.Width+x] = v * fc.Cap
		}
	}
	return f
}

// octaveNoise layers noise octaves, each at doubled frequency and
// scaled amplitude, normalized back to [0,1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	freq := frequency
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxValue
}

// At returns the resources stored in a cell.
func (f *ResourceField) At(p grid.Position) float64 {
	return f.Cells[p.Y*f.Width+p.X]
}

// Take withdraws up to amount from a cell and returns what was taken.
func (f *ResourceField) Take(p grid.Position, amount float64) float64 {
	i := p.Y*f.Width + p.X
	taken := amount
	if f.Cells[i] < taken {
		taken = f.Cells[i]
	}
	if taken < 0 {
		taken = 0
	}
	f.Cells[i] -= taken
	return taken
}

// Grow restores every cell toward Cap by the deficit fraction Regen,
// scaled by factor (seasonal rules pass values around 1).
func (f *ResourceField) Grow(factor float64) {
	if factor < 0 {
		factor = 0
	}
	for i, c := range f.Cells {
		regen := (f.Cap - c) * f.Regen * factor
		c += regen
		if c > f.Cap {
			c = f.Cap
		}
		f.Cells[i] = c
	}
}

// Total sums the resources over all cells.
func (f *ResourceField) Total() float64 {
	total := 0.0
	for _, c := range f.Cells {
		total += c
	}
	return total
}

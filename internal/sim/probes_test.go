package sim

import (
	"errors"
	"testing"

	"github.com/systemshift/llm-abm/internal/config"
)

// Probe rules stand in for the real rule set, which lives in its own
// package. The scheduler only sees ApplyFuncs, so small synthetic
// rules exercise it completely.
func init() {
	MustRegister(Spec{
		Name:     "probe_gift",
		Category: CategoryLifecycle,
		Desc:     "Adds energy to every live agent.",
		Params: []ParamSpec{
			{Name: "amount", Type: ParamFloat, Default: 5.0, Min: ptrF(0), Desc: "energy granted per tick"},
		},
		Apply: func(m *Model, p Params) (*Model, error) {
			next := m.Clone()
			for _, a := range next.Agents {
				if a.Alive {
					a.Energy += p.Float("amount")
				}
			}
			return next, nil
		},
	})
	MustRegister(Spec{
		Name:     "probe_tax",
		Category: CategoryLifecycle,
		Desc:     "Removes energy from every live agent.",
		Params: []ParamSpec{
			{Name: "rate", Type: ParamFloat, Required: true, Min: ptrF(0), Max: ptrF(1), Desc: "fraction taken per tick"},
		},
		Apply: func(m *Model, p Params) (*Model, error) {
			next := m.Clone()
			for _, a := range next.Agents {
				if a.Alive {
					a.Energy -= a.Energy * p.Float("rate")
				}
			}
			return next, nil
		},
	})
	MustRegister(Spec{
		Name:     "probe_drain",
		Category: CategoryLifecycle,
		Desc:     "Sets every agent's energy to zero.",
		Apply: func(m *Model, _ Params) (*Model, error) {
			next := m.Clone()
			for _, a := range next.Agents {
				a.Energy = 0
			}
			return next, nil
		},
	})
	MustRegister(Spec{
		Name:     "probe_fail",
		Category: CategoryCustom,
		Desc:     "Always fails.",
		Apply: func(*Model, Params) (*Model, error) {
			return nil, errors.New("boom")
		},
	})
	MustRegister(Spec{
		Name:     "probe_lost",
		Category: CategoryCustom,
		Desc:     "Returns no model and no error.",
		Apply: func(*Model, Params) (*Model, error) {
			return nil, nil
		},
	})
	MustRegister(Spec{
		Name:     "probe_fuse",
		Category: CategoryCustom,
		Desc:     "Counts ticks and fails on the third.",
		Apply: func(m *Model, _ Params) (*Model, error) {
			next := m.Clone()
			if next.Env.AddCounter("fuse", 1) >= 3 {
				return nil, errors.New("fuse blown")
			}
			return next, nil
		},
	})
}

func ptrF(v float64) *float64 { return &v }

// simModel builds a small world of identical ants.
func simModel(t *testing.T, count int, energy float64) *Model {
	t.Helper()
	e := energy
	cfg := &config.Config{
		Grid: config.GridConfig{Width: 6, Height: 6},
		Agents: map[string]config.SpeciesConfig{
			"ant": {Count: count, Energy: &e},
		},
		Seed: 5,
	}
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func mustAttach(t *testing.T, m *Model, name string, params map[string]any) *Model {
	t.Helper()
	next, err := m.AddRule(name, params)
	if err != nil {
		t.Fatalf("AddRule(%s): %v", name, err)
	}
	return next
}

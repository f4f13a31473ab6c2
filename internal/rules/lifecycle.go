// Lifecycle rules: energy decay, reproduction, and aging. None of
// them remove agents; the scheduler's death pass does that once per
// tick, after every rule has run.
package rules

import (
	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/sim"
)

func init() {
	sim.MustRegister(sim.Spec{
		Name:     "energy_decay",
		Category: sim.CategoryLifecycle,
		Desc:     "Matching agents lose a fixed amount of energy. Energy may go negative and trigger removal unless a floor is set.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Default: "all", Desc: "species that decays, or \"all\""},
			{Name: "rate", Type: sim.ParamFloat, Default: 1.0, Min: ptr(0), Desc: "energy lost per tick"},
			{Name: "floor", Type: sim.ParamFloat, Desc: "lowest energy decay can reach; unset leaves decay unclamped"},
		},
		Apply: energyDecay,
	})
	sim.MustRegister(sim.Spec{
		Name:     "reproduction",
		Category: sim.CategoryLifecycle,
		Desc:     "Parents at or above the energy threshold reproduce with the given probability, endowing the offspring with a fraction of their energy.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Required: true, Desc: "species that reproduces"},
			{Name: "energy_threshold", Type: sim.ParamFloat, Default: 30.0, Min: ptr(0), Desc: "minimum parent energy"},
			{Name: "rate", Type: sim.ParamFloat, Default: 0.1, Min: ptr(0), Max: ptr(1), Desc: "reproduction probability per eligible parent per tick"},
			{Name: "offspring_fraction", Type: sim.ParamFloat, Default: 0.5, Min: ptr(0), Max: ptr(1), Desc: "fraction of the parent's energy given to the offspring"},
		},
		Apply: reproduction,
	})
	sim.MustRegister(sim.Spec{
		Name:     "aging",
		Category: sim.CategoryLifecycle,
		Desc:     "Matching agents age by one tick and die of old age at the death age.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Default: "all", Desc: "species that ages, or \"all\""},
			{Name: "death_age", Type: sim.ParamInt, Default: 100, Min: ptr(1), Desc: "age at which agents die"},
		},
		Apply: aging,
	})
}

func energyDecay(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	rate := p.Float("rate")
	floor, clamped := p.LookupFloat("floor")

	for _, a := range next.Agents {
		if !a.Alive || !filter.Matches(a) {
			continue
		}
		a.Energy -= rate
		if clamped && a.Energy < floor {
			a.Energy = floor
		}
	}
	return next, nil
}

func reproduction(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	threshold := p.Float("energy_threshold")
	rate := p.Float("rate")
	fraction := p.Float("offspring_fraction")
	born := next.Step + 1
	rng := next.RNG()

	// Newborns are appended behind the snapshot length so they are
	// visible to later rules this tick but never breed in it.
	parents := len(next.Agents)
	for i := 0; i < parents; i++ {
		a := next.Agents[i]
		if !canAct(a, next) || !filter.Matches(a) {
			continue
		}
		if a.Energy < threshold {
			continue
		}
		if rng.Float64() >= rate {
			continue
		}
		endowment := a.Energy * fraction
		a.Energy -= endowment
		pos := next.Grid.RandomAdjacent(a.Position, rng)
		child := agents.NewChild(next.NextAgentID(), a, endowment, pos, born)
		next.Agents = append(next.Agents, child)
	}
	return next, nil
}

func aging(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	deathAge := p.Int("death_age")

	for _, a := range next.Agents {
		if !a.Alive || !filter.Matches(a) {
			continue
		}
		a.Age++
		if a.Age >= deathAge {
			a.Alive = false
		}
	}
	return next, nil
}

// Interaction rules: predation, competition over shared resources,
// and energy pooling within a species.
package rules

import (
	"sort"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/grid"
	"github.com/systemshift/llm-abm/internal/sim"
)

func init() {
	sim.MustRegister(sim.Spec{
		Name:     "predator_prey",
		Category: sim.CategoryInteraction,
		Desc:     "Each predator attempts to capture the nearest prey within range; a successful capture transfers energy and kills the prey.",
		Params: []sim.ParamSpec{
			{Name: "predator", Type: sim.ParamSpecies, Required: true, Desc: "hunting species"},
			{Name: "prey", Type: sim.ParamSpecies, Required: true, Desc: "hunted species"},
			{Name: "success_rate", Type: sim.ParamFloat, Default: 0.8, Min: ptr(0), Max: ptr(1), Desc: "capture probability per attempt"},
			{Name: "energy_gain", Type: sim.ParamFloat, Min: ptr(0), Desc: "energy per capture; defaults to the prey's remaining energy"},
			{Name: "capture_range", Type: sim.ParamFloat, Default: 0.0, Min: ptr(0), Desc: "capture distance; 0 means same cell"},
		},
		Apply: predatorPrey,
	})
	sim.MustRegister(sim.Spec{
		Name:     "competition",
		Category: sim.CategoryInteraction,
		Desc:     "Co-located agents of the listed species split the resource available on their cell, drawing the shared pool down when one is configured.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamStringList, Required: true, Desc: "species competing for resources"},
			{Name: "energy_per_resource", Type: sim.ParamFloat, Default: 5.0, Min: ptr(0), Desc: "energy available per cell per tick"},
			{Name: "resource", Type: sim.ParamString, Default: "resources", Desc: "environment counter to draw from; ignored when absent"},
		},
		Apply: competition,
	})
	sim.MustRegister(sim.Spec{
		Name:     "cooperation",
		Category: sim.CategoryInteraction,
		Desc:     "Co-located agents of one species pool energy, each moving part way toward the group mean. Total energy is conserved.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Required: true, Desc: "species that shares energy"},
			{Name: "share_rate", Type: sim.ParamFloat, Default: 0.25, Min: ptr(0), Max: ptr(1), Desc: "fraction of the gap to the mean closed per tick"},
		},
		Apply: cooperation,
	})
}

func predatorPrey(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	predType := p.Str("predator")
	preyType := p.Str("prey")
	success := p.Float("success_rate")
	captureRange := p.Float("capture_range")
	rangeSq := captureRange * captureRange
	rng := next.RNG()

	// Predators act in ascending ID order, so contended prey goes to
	// the lowest ID and reordering the agent list cannot change a run.
	preds := agents.ByType(next.Agents, predType)
	sort.Slice(preds, func(i, j int) bool { return preds[i].ID < preds[j].ID })

	for _, pr := range preds {
		if !canAct(pr, next) {
			continue
		}
		var cands []*agents.Agent
		for _, q := range next.Agents {
			if !q.Alive || q.Energy <= 0 || q.Type != preyType {
				continue
			}
			if float64(next.Grid.DistSq(pr.Position, q.Position)) <= rangeSq {
				cands = append(cands, q)
			}
		}
		target := agents.Nearest(next.Grid, pr.Position, cands)
		if target == nil {
			continue
		}
		if rng.Float64() >= success {
			continue
		}
		gain, bound := p.LookupFloat("energy_gain")
		if !bound {
			gain = target.Energy
		}
		pr.Energy += gain
		// The kill is marked here; removal is the scheduler's death
		// pass. A consumed prey drops out of later candidate sets.
		target.Energy = 0
		target.Alive = false
	}
	return next, nil
}

func competition(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	listed := make(map[string]bool)
	for _, s := range p.StrList("species") {
		listed[s] = true
	}
	perCell := p.Float("energy_per_resource")
	pool := p.Str("resource")

	groups := make(map[grid.Position][]*agents.Agent)
	for _, a := range next.Agents {
		if a.Alive && listed[a.Type] {
			groups[a.Position] = append(groups[a.Position], a)
		}
	}
	// Row-major cell order keeps pool depletion deterministic.
	cells := make([]grid.Position, 0, len(groups))
	for pos := range groups {
		cells = append(cells, pos)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})

	for _, pos := range cells {
		group := groups[pos]
		available := perCell
		switch {
		case next.Env.Field != nil:
			available = next.Env.Field.Take(pos, perCell)
		case pool != "" && next.Env.Has(pool):
			if left := next.Env.Counter(pool); left < available {
				available = left
			}
			if available < 0 {
				available = 0
			}
			next.Env.AddCounter(pool, -available)
		}
		if available <= 0 {
			continue
		}
		share := available / float64(len(group))
		for _, a := range group {
			a.Energy += share
		}
	}
	return next, nil
}

func cooperation(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	rate := p.Float("share_rate")

	// Sharing never crosses species, so groups key on cell and type.
	type flock struct {
		pos grid.Position
		typ string
	}
	groups := make(map[flock][]*agents.Agent)
	for _, a := range next.Agents {
		if a.Alive && filter.Matches(a) {
			k := flock{pos: a.Position, typ: a.Type}
			groups[k] = append(groups[k], a)
		}
	}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		total := 0.0
		for _, a := range group {
			total += a.Energy
		}
		mean := total / float64(len(group))
		for _, a := range group {
			a.Energy += rate * (mean - a.Energy)
		}
	}
	return next, nil
}

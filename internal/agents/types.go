// Package agents defines the simulated individuals: their state, the
// species filter used by rules, and the pure queries rules are built
// from. Agents carry no behavior of their own; rules act on them.
package agents

import (
	"maps"

	"github.com/systemshift/llm-abm/internal/grid"
)

// Agent is one individual in the world. IDs start at 1 and are never
// reused for the lifetime of a model. Born records the tick the agent
// entered the world (0 for the initial population); an agent takes no
// actions in its birth tick but passive rules already affect it.
type Agent struct {
	ID         int                `json:"id"`
	Type       string             `json:"type"`
	Position   grid.Position      `json:"position"`
	Energy     float64            `json:"energy"`
	Age        int                `json:"age"`
	Alive      bool               `json:"alive"`
	Born       int                `json:"born"`
	Properties map[string]float64 `json:"properties,omitempty"`
}

// Clone returns a deep copy, including the Properties map.
func (a *Agent) Clone() *Agent {
	c := *a
	if a.Properties != nil {
		c.Properties = maps.Clone(a.Properties)
	}
	return &c
}

// CloneAll deep-copies an agent list. Snapshots and successor models
// use this so no two model versions share agent values.
func CloneAll(list []*Agent) []*Agent {
	out := make([]*Agent, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}

// ApplyDeath filters out every agent that is dead or out of energy
// (alive == false or energy <= 0). The input is untouched; order is
// preserved. The scheduler runs this once per tick, after all rules.
func ApplyDeath(list []*Agent) []*Agent {
	out := make([]*Agent, 0, len(list))
	for _, a := range list {
		if a.Alive && a.Energy > 0 {
			out = append(out, a)
		}
	}
	return out
}

// CountByType tallies live agents per species.
func CountByType(list []*Agent) map[string]int {
	counts := make(map[string]int)
	for _, a := range list {
		if a.Alive {
			counts[a.Type]++
		}
	}
	return counts
}

// CountAlive returns the number of live agents.
func CountAlive(list []*Agent) int {
	n := 0
	for _, a := range list {
		if a.Alive {
			n++
		}
	}
	return n
}

// ByType returns the live agents of one species, in list order.
func ByType(list []*Agent, typ string) []*Agent {
	var out []*Agent
	for _, a := range list {
		if a.Alive && a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

// AtPosition returns the live agents occupying a cell, in list order.
func AtPosition(list []*Agent, p grid.Position) []*Agent {
	var out []*Agent
	for _, a := range list {
		if a.Alive && a.Position == p {
			out = append(out, a)
		}
	}
	return out
}

// Nearest returns the candidate closest to from, by torus-aware
// squared distance. Ties go to the lowest agent ID. The caller chooses
// the candidate set; nil means no candidates.
func Nearest(g grid.Grid, from grid.Position, cands []*Agent) *Agent {
	var best *Agent
	bestD := 0
	for _, c := range cands {
		d := g.DistSq(from, c.Position)
		if best == nil || d < bestD || (d == bestD && c.ID < best.ID) {
			best = c
			bestD = d
		}
	}
	return best
}

// Filter selects which species a rule applies to: either every agent
// or one specific type tag.
type Filter struct {
	any bool
	typ string
}

// FilterFor builds a Filter from a rule parameter. The literal "all"
// (or an empty string) matches every species.
func FilterFor(species string) Filter {
	if species == "" || species == "all" {
		return Filter{any: true}
	}
	return Filter{typ: species}
}

// Matches reports whether the agent's species passes the filter. It
// does not look at liveness; rules check that separately.
func (f Filter) Matches(a *Agent) bool {
	return f.any || a.Type == f.typ
}

// Movement rules: random walks, pursuit, avoidance, and flocking.
package rules

import (
	"math"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/grid"
	"github.com/systemshift/llm-abm/internal/sim"
)

func init() {
	sim.MustRegister(sim.Spec{
		Name:     "random_movement",
		Category: sim.CategoryMovement,
		Desc:     "Each matching agent steps to a uniformly random adjacent cell.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Default: "all", Desc: "species to move, or \"all\""},
		},
		Apply: randomMovement,
	})
	sim.MustRegister(sim.Spec{
		Name:     "directed_movement",
		Category: sim.CategoryMovement,
		Desc:     "Agents step toward the nearest agent of a target species, staying put when no step gets closer.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Required: true, Desc: "species that moves"},
			{Name: "target", Type: sim.ParamSpecies, Required: true, Desc: "species to move toward"},
			{Name: "vision", Type: sim.ParamFloat, Default: 0.0, Min: ptr(0), Desc: "detection range; 0 means unlimited"},
		},
		Apply: directedMovement,
	})
	sim.MustRegister(sim.Spec{
		Name:     "avoidance",
		Category: sim.CategoryMovement,
		Desc:     "Agents step away from the nearest agent of a threat species detected within a radius.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Required: true, Desc: "species that flees"},
			{Name: "avoid", Type: sim.ParamSpecies, Required: true, Desc: "species to keep away from"},
			{Name: "radius", Type: sim.ParamFloat, Default: 5.0, Min: ptr(0), Desc: "detection radius"},
		},
		Apply: avoidance,
	})
	sim.MustRegister(sim.Spec{
		Name:     "flocking",
		Category: sim.CategoryMovement,
		Desc:     "Agents drift toward the local center of their own species while keeping distance from the closest flockmate.",
		Params: []sim.ParamSpec{
			{Name: "species", Type: sim.ParamSpecies, Default: "all", Desc: "species that flocks, or \"all\""},
			{Name: "radius", Type: sim.ParamFloat, Default: 3.0, Min: ptr(1), Desc: "neighborhood radius"},
			{Name: "cohesion_weight", Type: sim.ParamFloat, Default: 1.0, Min: ptr(0), Desc: "pull toward the flock center"},
			{Name: "separation_weight", Type: sim.ParamFloat, Default: 1.5, Min: ptr(0), Desc: "push away from the nearest flockmate"},
		},
		Apply: flocking,
	})
}

func randomMovement(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	for _, a := range next.Agents {
		if !canAct(a, next) || !filter.Matches(a) {
			continue
		}
		a.Position = next.Grid.RandomAdjacent(a.Position, next.RNG())
	}
	return next, nil
}

func directedMovement(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	target := p.Str("target")
	vision := p.Float("vision")

	for _, a := range next.Agents {
		if !canAct(a, next) || !filter.Matches(a) {
			continue
		}
		cands := make([]*agents.Agent, 0, 8)
		for _, t := range next.Agents {
			if t.Alive && t.ID != a.ID && t.Type == target {
				cands = append(cands, t)
			}
		}
		goal := agents.Nearest(next.Grid, a.Position, cands)
		if goal == nil {
			continue
		}
		bestD := next.Grid.DistSq(a.Position, goal.Position)
		if vision > 0 && float64(bestD) > vision*vision {
			continue
		}
		best := a.Position
		for _, c := range next.Grid.Adjacent(a.Position) {
			if d := next.Grid.DistSq(c, goal.Position); d < bestD {
				best, bestD = c, d
			}
		}
		a.Position = best
	}
	return next, nil
}

func avoidance(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	avoid := p.Str("avoid")
	radius := p.Float("radius")

	for _, a := range next.Agents {
		if !canAct(a, next) || !filter.Matches(a) {
			continue
		}
		threats := make([]*agents.Agent, 0, 8)
		for _, t := range next.Agents {
			if t.Alive && t.ID != a.ID && t.Type == avoid {
				threats = append(threats, t)
			}
		}
		threat := agents.Nearest(next.Grid, a.Position, threats)
		if threat == nil {
			continue
		}
		bestD := next.Grid.DistSq(a.Position, threat.Position)
		if float64(bestD) > radius*radius {
			continue
		}
		best := a.Position
		for _, c := range next.Grid.Adjacent(a.Position) {
			if d := next.Grid.DistSq(c, threat.Position); d > bestD {
				best, bestD = c, d
			}
		}
		a.Position = best
	}
	return next, nil
}

func flocking(m *sim.Model, p sim.Params) (*sim.Model, error) {
	next := m.Clone()
	filter := agents.FilterFor(p.Str("species"))
	radius := p.Float("radius")
	cohesion := p.Float("cohesion_weight")
	separation := p.Float("separation_weight")

	for _, a := range next.Agents {
		if !canAct(a, next) || !filter.Matches(a) {
			continue
		}
		// Flockmates are live agents of the actor's own species within
		// the radius, found by shortest wrapped offset.
		var sumX, sumY float64
		var mates []*agents.Agent
		for _, t := range next.Agents {
			if !t.Alive || t.ID == a.ID || t.Type != a.Type {
				continue
			}
			if next.Grid.Distance(a.Position, t.Position) > radius {
				continue
			}
			mates = append(mates, t)
			sumX += signedDelta(a.Position.X, t.Position.X, next.Grid.Width, next.Grid.Topology)
			sumY += signedDelta(a.Position.Y, t.Position.Y, next.Grid.Height, next.Grid.Topology)
		}
		if len(mates) == 0 {
			continue
		}
		centerX := float64(a.Position.X) + sumX/float64(len(mates))
		centerY := float64(a.Position.Y) + sumY/float64(len(mates))

		// Score staying put and every adjacent cell; the first best
		// candidate wins, so standing still is the tie-break.
		best := a.Position
		bestScore := math.Inf(-1)
		for _, c := range append([]grid.Position{a.Position}, next.Grid.Adjacent(a.Position)...) {
			dCenter := floatDistance(next.Grid, float64(c.X), float64(c.Y), centerX, centerY)
			dNearest := math.Inf(1)
			for _, mate := range mates {
				if d := next.Grid.Distance(c, mate.Position); d < dNearest {
					dNearest = d
				}
			}
			score := separation*dNearest - cohesion*dCenter
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		a.Position = best
	}
	return next, nil
}

// signedDelta is the shortest signed axis offset from one coordinate
// to another, wrapping on a torus.
func signedDelta(from, to, size int, topo grid.Topology) float64 {
	d := to - from
	if topo == grid.Torus {
		if d > size/2 {
			d -= size
		}
		if d < -size/2 {
			d += size
		}
	}
	return float64(d)
}

// floatDistance is the torus-aware Euclidean distance between a cell
// and a fractional point such as a flock centroid.
func floatDistance(g grid.Grid, x1, y1, x2, y2 float64) float64 {
	dx := math.Abs(x1 - x2)
	dy := math.Abs(y1 - y2)
	if g.Topology == grid.Torus {
		if w := float64(g.Width) - dx; w < dx {
			dx = w
		}
		if h := float64(g.Height) - dy; h < dy {
			dy = h
		}
	}
	return math.Hypot(dx, dy)
}

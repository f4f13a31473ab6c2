// Agent spawning: builds the initial population from per-species
// config and constructs offspring during reproduction.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/systemshift/llm-abm/internal/grid"
)

// Placement is the initial position policy for a species.
type Placement uint8

const (
	// PlaceRandom scatters agents uniformly over the grid.
	PlaceRandom Placement = iota
	// PlaceCenter stacks agents on the exact center cell.
	PlaceCenter
	// PlaceEdges puts agents on the border, choosing a side uniformly.
	PlaceEdges
)

// ParsePlacement maps a config string to a Placement. An empty string
// selects PlaceRandom, the default.
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "random":
		return PlaceRandom, nil
	case "center":
		return PlaceCenter, nil
	case "edges":
		return PlaceEdges, nil
	default:
		return PlaceRandom, fmt.Errorf("agents: unknown placement %q", s)
	}
}

// Spawner issues agents with monotonically increasing IDs, starting
// at 1. It draws positions from the run's single random stream so a
// seed fixes the whole initial population.
type Spawner struct {
	rng    *rand.Rand
	nextID int
}

// NewSpawner creates a spawner that shares the run's random stream.
func NewSpawner(rng *rand.Rand) *Spawner {
	return &Spawner{rng: rng, nextID: 1}
}

// NextID returns the next unissued agent ID without consuming it.
func (s *Spawner) NextID() int {
	return s.nextID
}

// SpawnPopulation creates count agents of one species. Properties are
// copied per agent so no two agents share a map.
func (s *Spawner) SpawnPopulation(g grid.Grid, typ string, count int, energy float64, place Placement, props map[string]float64) []*Agent {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.spawnOne(g, typ, energy, place, props))
	}
	return out
}

func (s *Spawner) spawnOne(g grid.Grid, typ string, energy float64, place Placement, props map[string]float64) *Agent {
	id := s.nextID
	s.nextID++

	a := &Agent{
		ID:       id,
		Type:     typ,
		Position: s.position(g, place),
		Energy:   energy,
		Alive:    true,
		Born:     0,
	}
	if len(props) > 0 {
		a.Properties = make(map[string]float64, len(props))
		for k, v := range props {
			a.Properties[k] = v
		}
	}
	return a
}

func (s *Spawner) position(g grid.Grid, place Placement) grid.Position {
	switch place {
	case PlaceCenter:
		return g.Center()
	case PlaceEdges:
		return s.edgePosition(g)
	default:
		return g.RandomPosition(s.rng)
	}
}

func (s *Spawner) edgePosition(g grid.Grid) grid.Position {
	switch s.rng.Intn(4) {
	case 0: // top
		return grid.Position{X: s.rng.Intn(g.Width), Y: 0}
	case 1: // bottom
		return grid.Position{X: s.rng.Intn(g.Width), Y: g.Height - 1}
	case 2: // left
		return grid.Position{X: 0, Y: s.rng.Intn(g.Height)}
	default: // right
		return grid.Position{X: g.Width - 1, Y: s.rng.Intn(g.Height)}
	}
}

// NewChild constructs an offspring agent during reproduction. The
// caller allocates the ID and decides the energy endowment; type and
// properties come from the parent, age resets, and Born marks the
// tick in progress so the newborn takes no actions until the next one.
func NewChild(id int, parent *Agent, energy float64, pos grid.Position, born int) *Agent {
	c := &Agent{
		ID:       id,
		Type:     parent.Type,
		Position: pos,
		Energy:   energy,
		Age:      0,
		Alive:    true,
		Born:     born,
	}
	if len(parent.Properties) > 0 {
		c.Properties = make(map[string]float64, len(parent.Properties))
		for k, v := range parent.Properties {
			c.Properties[k] = v
		}
	}
	return c
}

package agents

import (
	"math/rand"
	"testing"

	"github.com/systemshift/llm-abm/internal/grid"
)

func TestSpawnerIssuesSequentialIDs(t *testing.T) {
	g := testGrid(t, grid.Torus)
	s := NewSpawner(rand.New(rand.NewSource(1)))

	rabbits := s.SpawnPopulation(g, "rabbit", 5, 20, PlaceRandom, nil)
	wolves := s.SpawnPopulation(g, "wolf", 3, 40, PlaceRandom, nil)

	seen := map[int]bool{}
	want := 1
	for _, a := range append(rabbits, wolves...) {
		if a.ID != want {
			t.Errorf("expected id %d, got %d", want, a.ID)
		}
		if seen[a.ID] {
			t.Errorf("duplicate id %d", a.ID)
		}
		seen[a.ID] = true
		want++
	}
	if s.NextID() != 9 {
		t.Errorf("NextID = %d, want 9", s.NextID())
	}
}

func TestSpawnPlacementPolicies(t *testing.T) {
	g := testGrid(t, grid.Bounded)
	s := NewSpawner(rand.New(rand.NewSource(2)))

	center := s.SpawnPopulation(g, "wolf", 4, 40, PlaceCenter, nil)
	for _, a := range center {
		if a.Position != g.Center() {
			t.Errorf("center placement put agent at %v", a.Position)
		}
	}

	edges := s.SpawnPopulation(g, "rabbit", 50, 20, PlaceEdges, nil)
	for _, a := range edges {
		p := a.Position
		onEdge := p.X == 0 || p.X == g.Width-1 || p.Y == 0 || p.Y == g.Height-1
		if !onEdge {
			t.Errorf("edge placement put agent at interior cell %v", p)
		}
	}

	scattered := s.SpawnPopulation(g, "rabbit", 50, 20, PlaceRandom, nil)
	for _, a := range scattered {
		if !g.Contains(a.Position) {
			t.Errorf("random placement left the grid: %v", a.Position)
		}
	}
}

func TestParsePlacement(t *testing.T) {
	for _, s := range []string{"", "random", "center", "edges"} {
		if _, err := ParsePlacement(s); err != nil {
			t.Errorf("ParsePlacement(%q): %v", s, err)
		}
	}
	if _, err := ParsePlacement("spiral"); err == nil {
		t.Error("expected error for unknown placement")
	}
}

func TestSpawnCopiesProperties(t *testing.T) {
	g := testGrid(t, grid.Torus)
	s := NewSpawner(rand.New(rand.NewSource(3)))
	props := map[string]float64{"speed": 2}

	pop := s.SpawnPopulation(g, "rabbit", 2, 20, PlaceRandom, props)
	pop[0].Properties["speed"] = 99
	if pop[1].Properties["speed"] != 2 {
		t.Error("agents share a properties map")
	}
	if props["speed"] != 2 {
		t.Error("spawn mutated the source properties map")
	}
}

func TestNewChildInheritsFromParent(t *testing.T) {
	parent := &Agent{
		ID: 3, Type: "rabbit", Age: 12, Alive: true, Energy: 35,
		Position:   grid.Position{X: 4, Y: 4},
		Properties: map[string]float64{"speed": 2},
	}
	child := NewChild(10, parent, 17.5, grid.Position{X: 4, Y: 5}, 6)

	if child.Type != "rabbit" || child.Age != 0 || !child.Alive {
		t.Errorf("child state wrong: %+v", child)
	}
	if child.Born != 6 || child.Energy != 17.5 {
		t.Errorf("child born/energy wrong: born %d energy %f", child.Born, child.Energy)
	}
	child.Properties["speed"] = 7
	if parent.Properties["speed"] != 2 {
		t.Error("child shares the parent's properties map")
	}
}

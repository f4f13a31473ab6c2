package agents

import (
	"testing"

	"github.com/systemshift/llm-abm/internal/grid"
)

func testGrid(t *testing.T, topo grid.Topology) grid.Grid {
	t.Helper()
	g, err := grid.New(10, 10, topo)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return g
}

func TestApplyDeathRemovesDeadAndDrained(t *testing.T) {
	list := []*Agent{
		{ID: 1, Type: "rabbit", Energy: 5, Alive: true},
		{ID: 2, Type: "rabbit", Energy: 0, Alive: true},
		{ID: 3, Type: "wolf", Energy: -2.5, Alive: true},
		{ID: 4, Type: "wolf", Energy: 9, Alive: false},
		{ID: 5, Type: "rabbit", Energy: 0.1, Alive: true},
	}
	got := ApplyDeath(list)
	if len(got) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 5 {
		t.Errorf("survivors out of order: %d, %d", got[0].ID, got[1].ID)
	}
	if len(list) != 5 {
		t.Errorf("input list mutated, len %d", len(list))
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := &Agent{ID: 7, Type: "rabbit", Energy: 12, Alive: true,
		Properties: map[string]float64{"speed": 2}}
	c := a.Clone()
	c.Energy = 99
	c.Properties["speed"] = 8
	if a.Energy != 12 {
		t.Errorf("clone shares energy: %f", a.Energy)
	}
	if a.Properties["speed"] != 2 {
		t.Errorf("clone shares properties map: %f", a.Properties["speed"])
	}
}

func TestNearestPrefersCloserThenLowestID(t *testing.T) {
	g := testGrid(t, grid.Bounded)
	from := grid.Position{X: 5, Y: 5}
	far := &Agent{ID: 1, Type: "rabbit", Position: grid.Position{X: 9, Y: 9}, Alive: true, Energy: 1}
	near := &Agent{ID: 9, Type: "rabbit", Position: grid.Position{X: 5, Y: 6}, Alive: true, Energy: 1}
	if got := Nearest(g, from, []*Agent{far, near}); got != near {
		t.Fatalf("expected nearest, got id %d", got.ID)
	}

	twinA := &Agent{ID: 4, Position: grid.Position{X: 5, Y: 4}, Alive: true, Energy: 1}
	twinB := &Agent{ID: 2, Position: grid.Position{X: 5, Y: 6}, Alive: true, Energy: 1}
	if got := Nearest(g, from, []*Agent{twinA, twinB}); got.ID != 2 {
		t.Fatalf("tie should go to lowest id, got %d", got.ID)
	}

	if got := Nearest(g, from, nil); got != nil {
		t.Fatalf("empty candidates should yield nil, got id %d", got.ID)
	}
}

func TestNearestUsesTorusDistance(t *testing.T) {
	g := testGrid(t, grid.Torus)
	from := grid.Position{X: 0, Y: 0}
	wrapped := &Agent{ID: 1, Position: grid.Position{X: 9, Y: 9}, Alive: true, Energy: 1}
	straight := &Agent{ID: 2, Position: grid.Position{X: 3, Y: 0}, Alive: true, Energy: 1}
	if got := Nearest(g, from, []*Agent{straight, wrapped}); got != wrapped {
		t.Fatalf("expected wrapped neighbor to win, got id %d", got.ID)
	}
}

func TestFilterMatching(t *testing.T) {
	rabbit := &Agent{Type: "rabbit"}
	wolf := &Agent{Type: "wolf"}
	all := FilterFor("all")
	if !all.Matches(rabbit) || !all.Matches(wolf) {
		t.Error(`FilterFor("all") should match every species`)
	}
	blank := FilterFor("")
	if !blank.Matches(rabbit) {
		t.Error("empty filter should match every species")
	}
	only := FilterFor("wolf")
	if only.Matches(rabbit) || !only.Matches(wolf) {
		t.Error("specific filter matched the wrong species")
	}
}

func TestQueriesSkipDeadAgents(t *testing.T) {
	p := grid.Position{X: 3, Y: 3}
	list := []*Agent{
		{ID: 1, Type: "rabbit", Position: p, Alive: true, Energy: 1},
		{ID: 2, Type: "rabbit", Position: p, Alive: false, Energy: 1},
		{ID: 3, Type: "wolf", Position: p, Alive: true, Energy: 1},
	}
	if got := ByType(list, "rabbit"); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("ByType: got %d agents", len(got))
	}
	if got := AtPosition(list, p); len(got) != 2 {
		t.Errorf("AtPosition: got %d agents, want 2", len(got))
	}
	counts := CountByType(list)
	if counts["rabbit"] != 1 || counts["wolf"] != 1 {
		t.Errorf("CountByType = %v", counts)
	}
	if n := CountAlive(list); n != 2 {
		t.Errorf("CountAlive = %d, want 2", n)
	}
}

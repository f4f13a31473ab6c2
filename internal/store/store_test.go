package store

import (
	"path/filepath"
	"testing"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/grid"
	"github.com/systemshift/llm-abm/internal/sim"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func archivedRun(seed int64) (*config.Config, *sim.Results) {
	cfg := &config.Config{
		Grid:   config.GridConfig{Width: 5, Height: 5},
		Agents: map[string]config.SpeciesConfig{"ant": {Count: 2}},
		Seed:   seed,
	}
	res := &sim.Results{
		FinalStep: 2,
		Metrics: sim.RunMetrics{
			InitialAgents:  2,
			StepsCompleted: 2,
			FinalAgents:    1,
			FinalCounts:    map[string]int{"ant": 1},
			History: []sim.Snapshot{
				{Step: 1, TotalAgents: 2, AgentCounts: map[string]int{"ant": 2}},
				{Step: 2, TotalAgents: 1, AgentCounts: map[string]int{"ant": 1}},
			},
		},
		FinalAgents: []*agents.Agent{
			{ID: 1, Type: "ant", Position: grid.Position{X: 3, Y: 4},
				Energy: 7.5, Age: 2, Alive: true},
		},
	}
	return cfg, res
}

func TestSaveRunAndReadBack(t *testing.T) {
	db := openTestDB(t)
	cfg, res := archivedRun(42)

	id, err := db.SaveRun(cfg, res)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatalf("SaveRun returned an empty ID")
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("archived %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != id || got.Seed != 42 || got.Steps != 2 {
		t.Errorf("run header = %+v", got)
	}
	if got.InitialAgents != 2 || got.FinalAgents != 1 {
		t.Errorf("population columns = %+v", got)
	}

	history, err := db.History(id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d rows, want 2", len(history))
	}
	if history[0].Step != 1 || history[1].Step != 2 {
		t.Errorf("history out of order: %+v", history)
	}
	if history[1].AgentCounts["ant"] != 1 {
		t.Errorf("counts did not round-trip: %+v", history[1])
	}
}

func TestRecentRunsOrdersAndLimits(t *testing.T) {
	db := openTestDB(t)
	cfg1, res1 := archivedRun(1)
	cfg2, res2 := archivedRun(2)

	if _, err := db.SaveRun(cfg1, res1); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second, err := db.SaveRun(cfg2, res2)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := db.RecentRuns(1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != second {
		t.Errorf("newest run = %+v, want %s", runs, second)
	}
}

func TestHistoryOfUnknownRunIsEmpty(t *testing.T) {
	db := openTestDB(t)
	history, err := db.History("no-such-run")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("unexpected rows: %+v", history)
	}
}

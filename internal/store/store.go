// Package store archives finished runs in SQLite so populations can
// be compared across scenarios later. It is an archive, not engine
// state: models are never loaded back into a live simulation.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/sim"
)

// DB wraps a SQLite connection holding the run archive.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the archive database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		initial_agents INTEGER NOT NULL,
		final_agents INTEGER NOT NULL,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		total_agents INTEGER NOT NULL,
		counts TEXT NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE TABLE IF NOT EXISTS final_agents (
		run_id TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		energy REAL NOT NULL,
		age INTEGER NOT NULL,
		born INTEGER NOT NULL,
		PRIMARY KEY (run_id, agent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_history_run ON history(run_id);
	CREATE INDEX IF NOT EXISTS idx_final_agents_run ON final_agents(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunSummary is one archived run's header row.
type RunSummary struct {
	ID            string `db:"id" json:"id"`
	CreatedAt     string `db:"created_at" json:"created_at"`
	Seed          int64  `db:"seed" json:"seed"`
	Steps         int    `db:"steps" json:"steps"`
	InitialAgents int    `db:"initial_agents" json:"initial_agents"`
	FinalAgents   int    `db:"final_agents" json:"final_agents"`
}

// SaveRun archives a finished run and returns its generated ID.
func (db *DB) SaveRun(cfg *config.Config, res *sim.Results) (string, error) {
	id := uuid.NewString()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, seed, steps, initial_agents, final_agents, config)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano),
		cfg.Seed, res.Metrics.StepsCompleted,
		res.Metrics.InitialAgents, res.Metrics.FinalAgents, string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(
		"INSERT INTO history (run_id, step, total_agents, counts) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, snap := range res.Metrics.History {
		counts, _ := json.Marshal(snap.AgentCounts)
		if _, err := stmt.Exec(id, snap.Step, snap.TotalAgents, string(counts)); err != nil {
			return "", fmt.Errorf("insert history step %d: %w", snap.Step, err)
		}
	}

	agentStmt, err := tx.Preparex(`INSERT INTO final_agents
		(run_id, agent_id, type, x, y, energy, age, born)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer agentStmt.Close()
	for _, a := range res.FinalAgents {
		_, err := agentStmt.Exec(id, a.ID, a.Type,
			a.Position.X, a.Position.Y, a.Energy, a.Age, a.Born)
		if err != nil {
			return "", fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("run archived", "id", id,
		"steps", res.Metrics.StepsCompleted, "final_agents", res.Metrics.FinalAgents)
	return id, nil
}

// RecentRuns returns the most recent archived runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunSummary, error) {
	var runs []RunSummary
	err := db.conn.Select(&runs, `SELECT id, created_at, seed, steps,
		initial_agents, final_agents
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	return runs, err
}

// History returns an archived run's per-tick snapshots in step order.
func (db *DB) History(runID string) ([]sim.Snapshot, error) {
	var rows []struct {
		Step        int    `db:"step"`
		TotalAgents int    `db:"total_agents"`
		Counts      string `db:"counts"`
	}
	err := db.conn.Select(&rows,
		"SELECT step, total_agents, counts FROM history WHERE run_id = ? ORDER BY step",
		runID)
	if err != nil {
		return nil, err
	}

	history := make([]sim.Snapshot, 0, len(rows))
	for _, r := range rows {
		snap := sim.Snapshot{Step: r.Step, TotalAgents: r.TotalAgents}
		if err := json.Unmarshal([]byte(r.Counts), &snap.AgentCounts); err != nil {
			return nil, fmt.Errorf("decode counts for step %d: %w", r.Step, err)
		}
		history = append(history, snap)
	}
	return history, nil
}

// Run loop: drives the scheduler for a fixed number of ticks and
// records one population snapshot per completed tick. Extinction does
// not stop a run; empty ticks still produce (zero) snapshots, so two
// runs of the same length always yield histories of the same shape.
package sim

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/systemshift/llm-abm/internal/agents"
)

// Snapshot is the per-tick history record.
type Snapshot struct {
	Step        int            `json:"step"`
	AgentCounts map[string]int `json:"agent_counts"`
	TotalAgents int            `json:"total_agents"`
}

// RunMetrics summarizes a finished run.
type RunMetrics struct {
	InitialAgents  int            `json:"initial_agents"`
	StepsCompleted int            `json:"steps_completed"`
	FinalAgents    int            `json:"final_agents"`
	FinalCounts    map[string]int `json:"final_counts"`
	History        []Snapshot     `json:"history"`
}

// Results is what a run returns: the final model, its agent list, and
// the accumulated metrics. After a failed tick the results still hold
// everything through the last completed tick.
type Results struct {
	FinalStep   int             `json:"final_step"`
	Metrics     RunMetrics      `json:"metrics"`
	Model       *Model          `json:"model"`
	FinalAgents []*agents.Agent `json:"final_agents"`
}

// Run advances the model steps ticks. steps <= 0 returns immediately
// with an empty history and the model untouched. On a rule failure the
// partial results are returned together with the *StepError.
func Run(m *Model, steps int) (*Results, error) {
	start := time.Now()
	initial := m.Metrics.TotalAgents
	initialStep := m.Step

	history := make([]Snapshot, 0, max(steps, 0))
	cur := m
	for i := 0; i < steps; i++ {
		next, err := Step(cur)
		if err != nil {
			slog.Error("run aborted", "step", cur.Step+1, "err", err)
			return buildResults(cur, initial, initialStep, history), err
		}
		cur = next
		history = append(history, snapshotOf(cur))
	}

	res := buildResults(cur, initial, initialStep, history)
	slog.Info("run complete",
		"steps", res.Metrics.StepsCompleted,
		"initial_agents", initial,
		"final_agents", res.Metrics.FinalAgents,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// StreamState is the per-tick payload delivered to a stream consumer.
// The agent list is a snapshot; mutating it cannot affect the run.
type StreamState struct {
	Step        int             `json:"step"`
	AgentCounts map[string]int  `json:"agent_counts"`
	TotalAgents int             `json:"total_agents"`
	Agents      []*agents.Agent `json:"agents"`
	Timestamp   time.Time       `json:"timestamp"`
}

// StreamFunc consumes per-tick states during RunStream.
type StreamFunc func(StreamState)

// RunStream is Run with a per-tick callback and optional pacing delay,
// for live observation. Cancelling the context stops the run between
// ticks; the results accumulated so far are returned with ctx.Err().
func RunStream(ctx context.Context, m *Model, steps int, delay time.Duration, fn StreamFunc) (*Results, error) {
	initial := m.Metrics.TotalAgents
	initialStep := m.Step

	history := make([]Snapshot, 0, max(steps, 0))
	cur := m
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return buildResults(cur, initial, initialStep, history), err
		}
		next, err := Step(cur)
		if err != nil {
			return buildResults(cur, initial, initialStep, history), err
		}
		cur = next
		history = append(history, snapshotOf(cur))

		if fn != nil {
			fn(StreamState{
				Step:        cur.Step,
				AgentCounts: maps.Clone(cur.Metrics.AgentCounts),
				TotalAgents: cur.Metrics.TotalAgents,
				Agents:      agents.CloneAll(cur.Agents),
				Timestamp:   time.Now(),
			})
		}
		if delay > 0 && i < steps-1 {
			select {
			case <-ctx.Done():
				return buildResults(cur, initial, initialStep, history), ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return buildResults(cur, initial, initialStep, history), nil
}

func snapshotOf(m *Model) Snapshot {
	return Snapshot{
		Step:        m.Step,
		AgentCounts: maps.Clone(m.Metrics.AgentCounts),
		TotalAgents: m.Metrics.TotalAgents,
	}
}

func buildResults(final *Model, initial, initialStep int, history []Snapshot) *Results {
	return &Results{
		FinalStep: final.Step,
		Metrics: RunMetrics{
			InitialAgents:  initial,
			StepsCompleted: final.Step - initialStep,
			FinalAgents:    final.Metrics.TotalAgents,
			FinalCounts:    maps.Clone(final.Metrics.AgentCounts),
			History:        history,
		},
		Model:       final,
		FinalAgents: final.Agents,
	}
}

// Package sim is the simulation core: the Model value, the rule
// registry, the tick scheduler, and the run loop. A model is data; a
// tick is a fold of the attached rules over it. Models are threaded
// sequentially and never shared between ticks, so history snapshots
// stay stable once recorded.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sort"
	"time"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/grid"
)

// Attachment is one rule bound to a model: the registered name plus
// its validated parameters. Order in Model.Rules is application order.
type Attachment struct {
	Name   string `json:"name"`
	Params Params `json:"params"`
	apply  ApplyFunc
}

// Metrics are the current population counters, recomputed by the
// scheduler from the survivor list at the end of every tick.
type Metrics struct {
	TotalAgents int            `json:"total_agents"`
	AgentCounts map[string]int `json:"agent_counts"`
}

// Model is the complete simulation state. Rules receive it read-only
// and return a successor; the random stream is the run's, shared
// across versions, and is the only mutable thing two versions have in
// common.
type Model struct {
	Config  *config.Config  `json:"config"`
	Grid    grid.Grid       `json:"grid"`
	Agents  []*agents.Agent `json:"agents"`
	Rules   []Attachment    `json:"rules"`
	Step    int             `json:"step"`
	Metrics Metrics         `json:"metrics"`
	Env     *Environment    `json:"environment"`

	rng    *rand.Rand
	nextID int
}

// NewModel validates the config and builds the initial model: grid,
// environment, and population. Species are spawned in sorted name
// order so a fixed seed fixes every agent ID and position. A zero
// seed derives one from the wall clock; reproducible runs set a seed.
func NewModel(cfg *config.Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	topo, err := grid.ParseTopology(cfg.Grid.Topology)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	g, err := grid.New(cfg.Grid.Width, cfg.Grid.Height, topo)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &Model{
		Config: cfg,
		Grid:   g,
		Env:    newEnvironment(cfg.Environment, g, seed),
		rng:    rng,
	}

	spawner := agents.NewSpawner(rng)
	names := make([]string, 0, len(cfg.Agents))
	for name := range cfg.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sp := cfg.Agents[name]
		place, err := agents.ParsePlacement(sp.Position)
		if err != nil {
			return nil, fmt.Errorf("sim: species %q: %w", name, err)
		}
		m.Agents = append(m.Agents, spawner.SpawnPopulation(g, name, sp.Count, sp.StartEnergy(), place, sp.Properties)...)
	}
	m.nextID = spawner.NextID()
	m.refreshMetrics()

	slog.Debug("model created",
		"grid", fmt.Sprintf("%dx%d/%s", g.Width, g.Height, g.Topology),
		"agents", m.Metrics.TotalAgents,
		"species", len(cfg.Agents),
		"seed", seed)
	return m, nil
}

// AddRule looks the rule up in the registry, validates the parameters
// against its schema, and returns a new model with the attachment
// appended. On any error the receiver is unchanged and stays usable.
func (m *Model) AddRule(name string, params map[string]any) (*Model, error) {
	spec, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	bound, err := bindParams(spec, params)
	if err != nil {
		return nil, err
	}
	next := m.Clone()
	next.Rules = append(next.Rules, Attachment{Name: spec.Name, Params: bound, apply: spec.Apply})
	return next, nil
}

// Clone returns a deep copy of the model. The immutable config, the
// bound rule parameters and the run's random stream are shared;
// agents, metrics, and environment are copied.
func (m *Model) Clone() *Model {
	return &Model{
		Config:  m.Config,
		Grid:    m.Grid,
		Agents:  agents.CloneAll(m.Agents),
		Rules:   slices.Clone(m.Rules),
		Step:    m.Step,
		Metrics: m.Metrics.clone(),
		Env:     m.Env.Clone(),
		rng:     m.rng,
		nextID:  m.nextID,
	}
}

// NextAgentID allocates the next agent ID. IDs are monotonic and never
// reused; an aborted tick discards the clone that consumed them.
func (m *Model) NextAgentID() int {
	id := m.nextID
	m.nextID++
	return id
}

// RNG is the run's single seeded stream. Rules must draw all their
// randomness from it so a seed reproduces the run.
func (m *Model) RNG() *rand.Rand {
	return m.rng
}

func (m *Model) refreshMetrics() {
	m.Metrics = Metrics{
		TotalAgents: agents.CountAlive(m.Agents),
		AgentCounts: agents.CountByType(m.Agents),
	}
}

func (mt Metrics) clone() Metrics {
	counts := make(map[string]int, len(mt.AgentCounts))
	for k, v := range mt.AgentCounts {
		counts[k] = v
	}
	return Metrics{TotalAgents: mt.TotalAgents, AgentCounts: counts}
}

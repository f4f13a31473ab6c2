// Package config defines the simulation configuration: grid shape,
// species populations, environment counters, and the rule list a run
// attaches. Configs are validated once, before a model is built; the
// core does not revalidate downstream.
package config

import (
	"fmt"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/grid"
)

// DefaultEnergy is the starting energy for species that do not set one.
const DefaultEnergy = 20.0

// Config is the root simulation configuration.
type Config struct {
	Grid        GridConfig               `yaml:"grid" json:"grid"`
	Agents      map[string]SpeciesConfig `yaml:"agents" json:"agents"`
	Environment EnvironmentConfig        `yaml:"environment" json:"environment"`
	Rules       []RuleConfig             `yaml:"rules" json:"rules"`
	CustomRules []CustomRule             `yaml:"custom_rules" json:"custom_rules,omitempty"`
	Seed        int64                    `yaml:"seed" json:"seed"`
	Steps       int                      `yaml:"steps" json:"steps"`
}

// GridConfig describes the world rectangle.
type GridConfig struct {
	Width    int    `yaml:"width" json:"width"`
	Height   int    `yaml:"height" json:"height"`
	Topology string `yaml:"topology" json:"topology"`
}

// SpeciesConfig describes one species' initial population. Energy nil
// means DefaultEnergy; Position empty means random placement.
type SpeciesConfig struct {
	Count      int                `yaml:"count" json:"count"`
	Energy     *float64           `yaml:"energy" json:"energy,omitempty"`
	Position   string             `yaml:"position" json:"position,omitempty"`
	Properties map[string]float64 `yaml:"properties" json:"properties,omitempty"`
}

// StartEnergy resolves the configured or default starting energy.
func (s SpeciesConfig) StartEnergy() float64 {
	if s.Energy != nil {
		return *s.Energy
	}
	return DefaultEnergy
}

// EnvironmentConfig seeds the model-level environment: named counters
// (e.g. a shared resource pool) and an optional per-cell resource
// field generated from noise.
type EnvironmentConfig struct {
	Counters map[string]float64 `yaml:"counters" json:"counters,omitempty"`
	Field    *FieldConfig       `yaml:"field" json:"field,omitempty"`
}

// FieldConfig controls the generated resource field. Cap is the
// per-cell maximum, Scale the noise frequency, Regen the fraction of
// the cell deficit restored per growth tick.
type FieldConfig struct {
	Cap   float64 `yaml:"cap" json:"cap"`
	Scale float64 `yaml:"scale" json:"scale"`
	Regen float64 `yaml:"regen" json:"regen"`
}

// RuleConfig is one rule attachment: a registered rule name plus its
// parameters. Order in the list is the order of application.
type RuleConfig struct {
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

// CustomRule is a declarative rule definition: conditions match agents
// by attribute, actions adjust them. It compiles to a registered rule
// before attachment (see the rules package).
type CustomRule struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Species     string   `yaml:"species" json:"species,omitempty"`
	Conditions  []Clause `yaml:"conditions" json:"conditions"`
	Actions     []Clause `yaml:"actions" json:"actions"`
}

// Clause is one condition or action of a CustomRule. Conditions use
// comparison operators (< <= > >= == !=) against energy, age, x, y or
// prop:<name>; actions use set/add/sub/mul on energy or prop:<name>.
type Clause struct {
	Attr  string  `yaml:"attr" json:"attr"`
	Op    string  `yaml:"op" json:"op"`
	Value float64 `yaml:"value" json:"value"`
}

// Validate checks the whole configuration and reports the first
// problem. A model is only ever built from a validated config.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("config: grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if _, err := grid.ParseTopology(c.Grid.Topology); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("config: at least one species is required")
	}
	for name, sp := range c.Agents {
		if name == "" {
			return fmt.Errorf("config: species name must not be empty")
		}
		if sp.Count < 0 {
			return fmt.Errorf("config: species %q count must not be negative, got %d", name, sp.Count)
		}
		if _, err := agents.ParsePlacement(sp.Position); err != nil {
			return fmt.Errorf("config: species %q: %w", name, err)
		}
	}
	if f := c.Environment.Field; f != nil {
		if f.Cap <= 0 {
			return fmt.Errorf("config: field cap must be positive, got %g", f.Cap)
		}
		if f.Scale <= 0 {
			return fmt.Errorf("config: field scale must be positive, got %g", f.Scale)
		}
		if f.Regen < 0 || f.Regen > 1 {
			return fmt.Errorf("config: field regen must be within [0,1], got %g", f.Regen)
		}
	}
	for i, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("config: rules[%d] is missing a name", i)
		}
	}
	for i, cr := range c.CustomRules {
		if cr.Name == "" {
			return fmt.Errorf("config: custom_rules[%d] is missing a name", i)
		}
		if len(cr.Actions) == 0 {
			return fmt.Errorf("config: custom rule %q has no actions", cr.Name)
		}
	}
	if c.Steps < 0 {
		return fmt.Errorf("config: steps must not be negative, got %d", c.Steps)
	}
	return nil
}

// Conditional rules: a declarative condition/action form that compiles
// to a registered rule. Scenario files (and the language models that
// write them) describe behavior as data; nothing is ever loaded as
// code.
package rules

import (
	"fmt"
	"strings"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/sim"
)

// RegisterConditional compiles a declarative rule and registers it
// under its name, after which it attaches like any built-in.
func RegisterConditional(def config.CustomRule) error {
	spec, err := CompileConditional(def)
	if err != nil {
		return err
	}
	return sim.Register(spec)
}

// CompileConditional validates a declarative rule definition and
// builds its Spec. Conditions must all hold for an agent before the
// actions apply to it; agents are evaluated independently, so compiled
// rules are deterministic.
func CompileConditional(def config.CustomRule) (sim.Spec, error) {
	if def.Name == "" {
		return sim.Spec{}, fmt.Errorf("rules: conditional rule needs a name")
	}
	if len(def.Actions) == 0 {
		return sim.Spec{}, fmt.Errorf("rules: conditional rule %q has no actions", def.Name)
	}

	conds := make([]func(*agents.Agent) bool, 0, len(def.Conditions))
	for _, c := range def.Conditions {
		cond, err := compileCondition(c)
		if err != nil {
			return sim.Spec{}, fmt.Errorf("rules: rule %q: %w", def.Name, err)
		}
		conds = append(conds, cond)
	}
	acts := make([]func(*agents.Agent), 0, len(def.Actions))
	for _, a := range def.Actions {
		act, err := compileAction(a)
		if err != nil {
			return sim.Spec{}, fmt.Errorf("rules: rule %q: %w", def.Name, err)
		}
		acts = append(acts, act)
	}
	filter := agents.FilterFor(def.Species)

	apply := func(m *sim.Model, _ sim.Params) (*sim.Model, error) {
		next := m.Clone()
		for _, a := range next.Agents {
			if !a.Alive || !filter.Matches(a) {
				continue
			}
			matched := true
			for _, cond := range conds {
				if !cond(a) {
					matched = false
					break
				}
			}
			if !matched {
				continue
			}
			for _, act := range acts {
				act(a)
			}
		}
		return next, nil
	}

	desc := def.Description
	if desc == "" {
		desc = "Declarative rule."
	}
	return sim.Spec{
		Name:     def.Name,
		Category: sim.CategoryCustom,
		Desc:     desc,
		Apply:    apply,
	}, nil
}

// attrReader resolves a readable agent attribute: energy, age, x, y,
// or prop:<name> (absent properties read as 0).
func attrReader(attr string) (func(*agents.Agent) float64, error) {
	switch attr {
	case "energy":
		return func(a *agents.Agent) float64 { return a.Energy }, nil
	case "age":
		return func(a *agents.Agent) float64 { return float64(a.Age) }, nil
	case "x":
		return func(a *agents.Agent) float64 { return float64(a.Position.X) }, nil
	case "y":
		return func(a *agents.Agent) float64 { return float64(a.Position.Y) }, nil
	}
	if name, ok := strings.CutPrefix(attr, "prop:"); ok && name != "" {
		return func(a *agents.Agent) float64 { return a.Properties[name] }, nil
	}
	return nil, fmt.Errorf("unknown attribute %q", attr)
}

func compileCondition(c config.Clause) (func(*agents.Agent) bool, error) {
	read, err := attrReader(c.Attr)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}
	v := c.Value
	switch c.Op {
	case "<":
		return func(a *agents.Agent) bool { return read(a) < v }, nil
	case "<=":
		return func(a *agents.Agent) bool { return read(a) <= v }, nil
	case ">":
		return func(a *agents.Agent) bool { return read(a) > v }, nil
	case ">=":
		return func(a *agents.Agent) bool { return read(a) >= v }, nil
	case "==":
		return func(a *agents.Agent) bool { return read(a) == v }, nil
	case "!=":
		return func(a *agents.Agent) bool { return read(a) != v }, nil
	default:
		return nil, fmt.Errorf("condition: unknown operator %q", c.Op)
	}
}

// compileAction builds a mutator. Only energy and properties are
// writable; positions stay under the movement rules so topology
// resolution cannot be bypassed.
func compileAction(c config.Clause) (func(*agents.Agent), error) {
	v := c.Value
	var write func(a *agents.Agent, f func(float64) float64)
	switch {
	case c.Attr == "energy":
		write = func(a *agents.Agent, f func(float64) float64) { a.Energy = f(a.Energy) }
	case strings.HasPrefix(c.Attr, "prop:") && len(c.Attr) > len("prop:"):
		name := strings.TrimPrefix(c.Attr, "prop:")
		write = func(a *agents.Agent, f func(float64) float64) {
			if a.Properties == nil {
				a.Properties = make(map[string]float64, 1)
			}
			a.Properties[name] = f(a.Properties[name])
		}
	default:
		return nil, fmt.Errorf("action: attribute %q is not writable", c.Attr)
	}

	switch c.Op {
	case "set":
		return func(a *agents.Agent) { write(a, func(float64) float64 { return v }) }, nil
	case "add":
		return func(a *agents.Agent) { write(a, func(old float64) float64 { return old + v }) }, nil
	case "sub":
		return func(a *agents.Agent) { write(a, func(old float64) float64 { return old - v }) }, nil
	case "mul":
		return func(a *agents.Agent) { write(a, func(old float64) float64 { return old * v }) }, nil
	default:
		return nil, fmt.Errorf("action: unknown operator %q", c.Op)
	}
}

package rules

import (
	"errors"
	"testing"

	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/sim"
)

func TestCompileConditionalRejectsBadShapes(t *testing.T) {
	action := config.Clause{Attr: "energy", Op: "add", Value: 1}
	cases := []struct {
		name string
		def  config.CustomRule
	}{
		{"no name", config.CustomRule{Actions: []config.Clause{action}}},
		{"no actions", config.CustomRule{Name: "r"}},
		{"unknown condition attr", config.CustomRule{Name: "r",
			Conditions: []config.Clause{{Attr: "speed", Op: "<", Value: 1}},
			Actions:    []config.Clause{action}}},
		{"unknown condition op", config.CustomRule{Name: "r",
			Conditions: []config.Clause{{Attr: "energy", Op: "~", Value: 1}},
			Actions:    []config.Clause{action}}},
		{"empty prop name", config.CustomRule{Name: "r",
			Conditions: []config.Clause{{Attr: "prop:", Op: "<", Value: 1}},
			Actions:    []config.Clause{action}}},
		{"position not writable", config.CustomRule{Name: "r",
			Actions: []config.Clause{{Attr: "x", Op: "set", Value: 0}}}},
		{"age not writable", config.CustomRule{Name: "r",
			Actions: []config.Clause{{Attr: "age", Op: "set", Value: 0}}}},
		{"unknown action op", config.CustomRule{Name: "r",
			Actions: []config.Clause{{Attr: "energy", Op: "<", Value: 1}}}},
	}
	for _, c := range cases {
		if _, err := CompileConditional(c.def); err == nil {
			t.Errorf("%s: expected a compile error", c.name)
		}
	}
}

func TestConditionOperators(t *testing.T) {
	a := &agents.Agent{Energy: 5, Age: 3, Alive: true,
		Properties: map[string]float64{"mood": 1}}
	a.Position.X, a.Position.Y = 2, 7

	cases := []struct {
		attr, op string
		value    float64
		want     bool
	}{
		{"energy", "<", 6, true},
		{"energy", "<=", 5, true},
		{"energy", ">", 5, false},
		{"age", ">=", 3, true},
		{"x", "==", 2, true},
		{"y", "!=", 7, false},
		{"prop:mood", ">", 0, true},
		{"prop:missing", "==", 0, true},
	}
	for _, c := range cases {
		cond, err := compileCondition(config.Clause{Attr: c.attr, Op: c.op, Value: c.value})
		if err != nil {
			t.Errorf("compile %s %s %g: %v", c.attr, c.op, c.value, err)
			continue
		}
		if got := cond(a); got != c.want {
			t.Errorf("%s %s %g = %v, want %v", c.attr, c.op, c.value, got, c.want)
		}
	}
}

func TestActionOperators(t *testing.T) {
	cases := []struct {
		op   string
		want float64
	}{
		{"set", 3},
		{"add", 13},
		{"sub", 7},
		{"mul", 30},
	}
	for _, c := range cases {
		act, err := compileAction(config.Clause{Attr: "energy", Op: c.op, Value: 3})
		if err != nil {
			t.Fatalf("compile %s: %v", c.op, err)
		}
		a := &agents.Agent{Energy: 10, Alive: true}
		act(a)
		if a.Energy != c.want {
			t.Errorf("%s 3 on 10 = %g, want %g", c.op, a.Energy, c.want)
		}
	}

	act, err := compileAction(config.Clause{Attr: "prop:tired", Op: "add", Value: 1})
	if err != nil {
		t.Fatalf("compile prop action: %v", err)
	}
	a := &agents.Agent{Alive: true}
	act(a)
	if a.Properties["tired"] != 1 {
		t.Errorf("prop:tired = %g, want 1 on a nil map", a.Properties["tired"])
	}
}

func TestConditionalRuleAppliesPerAgent(t *testing.T) {
	err := RegisterConditional(config.CustomRule{
		Name:        "test_exhaustion",
		Description: "Tired rabbits catch their breath.",
		Species:     "rabbit",
		Conditions:  []config.Clause{{Attr: "energy", Op: "<", Value: 5}},
		Actions: []config.Clause{
			{Attr: "prop:tired", Op: "set", Value: 1},
			{Attr: "energy", Op: "add", Value: 2},
		},
	})
	if err != nil {
		t.Fatalf("RegisterConditional: %v", err)
	}
	spec, err := sim.Lookup("test_exhaustion")
	if err != nil || spec.Category != sim.CategoryCustom {
		t.Fatalf("Lookup = %v, %v, want a custom rule", spec.Category, err)
	}

	m := testModel(t, 10, 10, "torus")
	tired := addAgent(m, "rabbit", 1, 1, 3)
	fresh := addAgent(m, "rabbit", 2, 2, 10)
	wolf := addAgent(m, "wolf", 3, 3, 3)
	m = attach(t, m, "test_exhaustion", nil)

	next := tick(t, m)
	got := find(t, next, tired.ID)
	if got.Energy != 5 || got.Properties["tired"] != 1 {
		t.Errorf("tired rabbit = %g energy, tired %g; want 5 and 1",
			got.Energy, got.Properties["tired"])
	}
	if got := find(t, next, fresh.ID); got.Energy != 10 || got.Properties != nil {
		t.Errorf("fresh rabbit changed: %+v", got)
	}
	if got := find(t, next, wolf.ID); got.Energy != 3 {
		t.Errorf("wolf energy = %g, the rule is rabbit-only", got.Energy)
	}
}

func TestRegisterConditionalDuplicate(t *testing.T) {
	def := config.CustomRule{
		Name:    "test_dup",
		Actions: []config.Clause{{Attr: "energy", Op: "add", Value: 1}},
	}
	if err := RegisterConditional(def); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := RegisterConditional(def); !errors.Is(err, sim.ErrRuleExists) {
		t.Errorf("second registration err = %v, want ErrRuleExists", err)
	}
}

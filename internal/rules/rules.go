// Package rules implements the built-in rule set and registers it at
// init time. Import it for side effects to make the catalog available:
//
//	import _ "github.com/systemshift/llm-abm/internal/rules"
//
// Every rule clones the model it receives and returns the clone; the
// input is never mutated. Action rules (movement, hunting, breeding)
// skip agents that are dead, out of energy, or born in the tick in
// progress; passive rules (decay, aging, sharing) apply to every live
// agent including newborns.
package rules

import (
	"github.com/systemshift/llm-abm/internal/agents"
	"github.com/systemshift/llm-abm/internal/sim"
)

// canAct reports whether an agent may take actions in the tick being
// computed. Agents marked dead or drained earlier in the tick stay in
// the list until the death pass but no longer act; newborns wait for
// the next tick.
func canAct(a *agents.Agent, m *sim.Model) bool {
	return a.Alive && a.Energy > 0 && a.Born <= m.Step
}

func ptr(v float64) *float64 { return &v }

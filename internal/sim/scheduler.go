// Tick scheduler: one tick folds the attached rules over the model,
// left to right, then runs the death pass, advances the step counter,
// and recomputes metrics. Removal of dead or drained agents happens
// here and only here; rules just mark state.
package sim

import (
	"fmt"

	"github.com/systemshift/llm-abm/internal/agents"
)

// StepError reports a rule failure during a tick. The tick is not
// committed: the caller's model is exactly as it was before the tick.
type StepError struct {
	Step int    // 1-based index of the tick that failed
	Rule string // attachment that raised the error
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sim: step %d: rule %q: %v", e.Step, e.Rule, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Step advances the model by one tick and returns the successor. Each
// rule receives the previous rule's output, so later rules observe
// earlier effects within the same tick (including newborn agents and
// agents marked dead but not yet removed). On error the input model is
// returned untouched together with a *StepError naming the tick and
// rule.
func Step(m *Model) (*Model, error) {
	cur := m
	for _, att := range m.Rules {
		next, err := att.apply(cur, att.Params)
		if err != nil {
			return m, &StepError{Step: m.Step + 1, Rule: att.Name, Err: err}
		}
		if next == nil {
			return m, &StepError{Step: m.Step + 1, Rule: att.Name, Err: fmt.Errorf("rule returned no model")}
		}
		cur = next
	}

	// With no rules attached cur still aliases the caller's model.
	if cur == m {
		cur = m.Clone()
	}

	cur.Agents = agents.ApplyDeath(cur.Agents)
	cur.Step++
	cur.refreshMetrics()
	return cur, nil
}

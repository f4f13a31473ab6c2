package sim

import (
	"errors"
	"strings"
	"testing"
)

func TestStepFoldsRulesInOrder(t *testing.T) {
	m := simModel(t, 2, 10)
	m = mustAttach(t, m, "probe_gift", map[string]any{"amount": 10})
	m = mustAttach(t, m, "probe_tax", map[string]any{"rate": 0.5})

	next, err := Step(m)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	// Gift before tax: (10 + 10) * 0.5. The reverse order would give 15.
	for _, a := range next.Agents {
		if a.Energy != 10 {
			t.Errorf("agent %d energy = %g, want 10", a.ID, a.Energy)
		}
	}
	if next.Step != 1 {
		t.Errorf("step = %d, want exactly one increment", next.Step)
	}
	if m.Step != 0 {
		t.Errorf("input model advanced to step %d", m.Step)
	}
}

func TestStepRemovesDeadAfterAllRules(t *testing.T) {
	m := simModel(t, 3, 10)
	m = mustAttach(t, m, "probe_drain", nil)
	// The gift after the drain still sees the drained agents: removal
	// only happens once every rule has run.
	m = mustAttach(t, m, "probe_gift", map[string]any{"amount": 1})

	next, err := Step(m)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(next.Agents) != 3 {
		t.Fatalf("agents = %d, want 3 rescued by the later gift", len(next.Agents))
	}

	m2 := simModel(t, 3, 10)
	m2 = mustAttach(t, m2, "probe_drain", nil)
	next2, err := Step(m2)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(next2.Agents) != 0 || next2.Metrics.TotalAgents != 0 {
		t.Errorf("agents = %d, metrics = %d, want an empty world",
			len(next2.Agents), next2.Metrics.TotalAgents)
	}
}

func TestStepErrorLeavesModelUntouched(t *testing.T) {
	m := simModel(t, 2, 10)
	m = mustAttach(t, m, "probe_gift", nil)
	m = mustAttach(t, m, "probe_fail", nil)

	got, err := Step(m)
	if got != m {
		t.Errorf("failed Step returned a different model")
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("err = %v, want a StepError", err)
	}
	if stepErr.Step != 1 || stepErr.Rule != "probe_fail" {
		t.Errorf("StepError = %+v, want step 1, rule probe_fail", stepErr)
	}
	if !strings.Contains(stepErr.Error(), `"probe_fail"`) {
		t.Errorf("error text %q does not name the rule", stepErr.Error())
	}
	for _, a := range m.Agents {
		if a.Energy != 10 {
			t.Errorf("aborted tick leaked a partial effect: energy %g", a.Energy)
		}
	}
	if m.Step != 0 {
		t.Errorf("aborted tick advanced the step to %d", m.Step)
	}
}

func TestStepRejectsRuleReturningNoModel(t *testing.T) {
	m := simModel(t, 1, 10)
	m = mustAttach(t, m, "probe_lost", nil)

	got, err := Step(m)
	if got != m || err == nil {
		t.Fatalf("Step = %v, %v; want the input model and an error", got, err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Rule != "probe_lost" {
		t.Errorf("err = %v, want a StepError naming probe_lost", err)
	}
}

func TestStepWithoutRulesStillAdvances(t *testing.T) {
	m := simModel(t, 2, 10)
	next, err := Step(m)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if next == m {
		t.Errorf("Step returned the input model")
	}
	if next.Step != 1 || m.Step != 0 {
		t.Errorf("steps = %d and %d, want 1 and 0", next.Step, m.Step)
	}
	next.Agents[0].Energy = 999
	if m.Agents[0].Energy != 10 {
		t.Errorf("successor shares agents with the input model")
	}
}

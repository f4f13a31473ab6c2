package sim

import (
	"strings"
	"testing"
)

func TestRulesDocCoversEveryRule(t *testing.T) {
	doc := RulesDoc()
	for _, name := range Names() {
		if !strings.Contains(doc, "### "+name+"\n") {
			t.Errorf("catalog is missing %s", name)
		}
	}
	if !strings.Contains(doc, "removed automatically") {
		t.Errorf("catalog does not explain automatic removal")
	}
}

func TestRulesDocDescribesParams(t *testing.T) {
	doc := RulesDoc()
	for _, want := range []string{
		"- `amount` (float, default 5",
		"- `rate` (float, required, range 0..1)",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("catalog is missing %q", want)
		}
	}
}

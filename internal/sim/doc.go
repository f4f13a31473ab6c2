package sim

import (
	"fmt"
	"strings"
)

// RulesDoc renders the registered rule catalog as compact markdown,
// generated from the schemas so it cannot drift from the code. The
// output is small enough to embed in an LLM prompt, which is how
// model-written scenarios learn what they may attach.
func RulesDoc() string {
	var b strings.Builder
	b.WriteString("# Rule catalog\n\n")
	b.WriteString("Attach rules in the order they should run each tick; each rule sees the previous rule's output. ")
	b.WriteString("Agents ending a tick dead or at zero energy are removed automatically, so no death rule exists.\n")

	order := []Category{CategoryMovement, CategoryInteraction, CategoryLifecycle, CategoryEnvironment, CategoryCustom}
	for _, cat := range order {
		var block []Spec
		for _, s := range List() {
			if s.Category == cat {
				block = append(block, s)
			}
		}
		if len(block) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", cat)
		for _, s := range block {
			fmt.Fprintf(&b, "\n### %s\n%s\n", s.Name, s.Desc)
			for _, p := range s.Params {
				b.WriteString(paramLine(p))
			}
		}
	}
	return b.String()
}

func paramLine(p ParamSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- `%s` (%s", p.Name, p.Type)
	switch {
	case p.Required:
		b.WriteString(", required")
	case p.Default != nil:
		fmt.Fprintf(&b, ", default %v", p.Default)
	default:
		b.WriteString(", optional")
	}
	if p.Min != nil || p.Max != nil {
		b.WriteString(", range ")
		if p.Min != nil {
			fmt.Fprintf(&b, "%g", *p.Min)
		}
		b.WriteString("..")
		if p.Max != nil {
			fmt.Fprintf(&b, "%g", *p.Max)
		}
	}
	b.WriteString(")")
	if p.Desc != "" {
		fmt.Fprintf(&b, ": %s", p.Desc)
	}
	b.WriteString("\n")
	return b.String()
}

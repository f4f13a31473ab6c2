package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systemshift/llm-abm/internal/sim"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rules",
	Long:  `Shows every rule a scenario may attach, with its category and parameters.`,
	Run:   runRules,
}

func runRules(cmd *cobra.Command, args []string) {
	specs := sim.List()
	if len(specs) == 0 {
		fmt.Println("No rules registered.")
		return
	}

	maxName, maxCat := len("Rule"), len("Category")
	for _, s := range specs {
		if len(s.Name) > maxName {
			maxName = len(s.Name)
		}
		if len(s.Category.String()) > maxCat {
			maxCat = len(s.Category.String())
		}
	}

	fmt.Printf("  %-*s  %-*s  %s\n", maxName, "Rule", maxCat, "Category", "Parameters")
	fmt.Printf("  %-*s  %-*s  %s\n", maxName, "----", maxCat, "--------", "----------")
	for _, s := range specs {
		fmt.Printf("  %-*s  %-*s  %s\n", maxName, s.Name, maxCat, s.Category, paramNames(s))
	}

	fmt.Println()
	fmt.Println("Run 'abmsim docs' for the full catalog with defaults and ranges.")
}

func paramNames(s sim.Spec) string {
	if len(s.Params) == 0 {
		return "-"
	}
	out := ""
	for i, p := range s.Params {
		if i > 0 {
			out += ", "
		}
		out += p.Name
		if p.Required {
			out += "*"
		}
	}
	return out
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systemshift/llm-abm/internal/sim"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print the rule catalog as markdown",
	Long: `Renders the registered rule catalog as compact markdown, generated
from the rule schemas. The output is meant to be pasted into the prompt
of a language model that writes scenario files.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(sim.RulesDoc())
	},
}

// abmsim runs grid-world agent simulations described as data: a YAML
// scenario names the species to spawn and the rules to attach, the
// engine folds the rules over the model once per tick.
//
// Usage:
//
//	abmsim run [config.yaml]   - Run a scenario (embedded default if omitted)
//	abmsim rules               - List the registered rules
//	abmsim docs                - Print the rule catalog as markdown
//
// Global flags:
//
//	--log-level <level>  - debug, info, warn or error (default: info)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var flagLogLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "abmsim",
	Short: "Agent-based simulations from declarative scenarios",
	Long: `abmsim is an agent-based simulation engine. A scenario file declares
the grid, the species and the rules; the engine applies the rules in
order every tick and reports how the populations evolve.

Examples:
  abmsim run
  abmsim run configs/predator_prey.yaml --steps 200 --format csv --out run.csv
  abmsim run configs/flocking.yaml --watch --delay 50ms
  abmsim rules`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(docsCmd)
}

func setupLogging() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if level, err := log.ParseLevel(flagLogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
	}
	slog.SetDefault(slog.New(logger))
}

// fail logs the error and exits.
func fail(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/systemshift/llm-abm/internal/config"
	"github.com/systemshift/llm-abm/internal/export"
	"github.com/systemshift/llm-abm/internal/rules"
	"github.com/systemshift/llm-abm/internal/sim"
	"github.com/systemshift/llm-abm/internal/store"
)

var (
	flagSteps  int
	flagSeed   int64
	flagFormat string
	flagOut    string
	flagDB     string
	flagWatch  bool
	flagDelay  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [config.yaml]",
	Short: "Run a scenario",
	Long: `Run a scenario to completion and print the results.

Without a config path the embedded default scenario runs: rabbits and
wolves on a 20x20 torus. Flags override the scenario's steps and seed.

Examples:
  abmsim run
  abmsim run configs/predator_prey.yaml --seed 7
  abmsim run --steps 500 --format json --out results.json
  abmsim run --watch --delay 200ms
  abmsim run --db runs.db`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagSteps, "steps", 0, "Tick count (overrides the scenario)")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (overrides the scenario; 0 = from the clock)")
	runCmd.Flags().StringVar(&flagFormat, "format", "summary", "Output format: json, csv, summary")
	runCmd.Flags().StringVar(&flagOut, "out", "", "Write output to a file instead of stdout")
	runCmd.Flags().StringVar(&flagDB, "db", "", "Archive the run in a SQLite database")
	runCmd.Flags().BoolVar(&flagWatch, "watch", false, "Log populations tick by tick")
	runCmd.Flags().DurationVar(&flagDelay, "delay", 100*time.Millisecond, "Pause between ticks with --watch")
}

func runRun(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(args)
	if err != nil {
		fail("could not load scenario", err)
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = flagSteps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}

	for _, def := range cfg.CustomRules {
		if err := rules.RegisterConditional(def); err != nil {
			fail("could not register custom rule", err)
		}
	}

	m, err := sim.NewModel(cfg)
	if err != nil {
		fail("could not build model", err)
	}
	for _, r := range cfg.Rules {
		m, err = m.AddRule(r.Name, r.Params)
		if err != nil {
			fail("could not attach rule", err)
		}
	}

	res, runErr := execute(m, cfg.Steps)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run failed, reporting the completed ticks", "error", runErr)
	}

	out, err := export.Export(res, flagFormat)
	if err != nil {
		fail("could not render results", err)
	}
	if flagOut != "" {
		if err := os.WriteFile(flagOut, []byte(out), 0o644); err != nil {
			fail("could not write output file", err)
		}
		slog.Info("results written", "path", flagOut, "format", flagFormat)
	} else {
		fmt.Print(out)
	}

	if flagDB != "" {
		archive(cfg, res)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config.Config, error) {
	if len(args) == 1 {
		return config.Load(args[0])
	}
	return config.Default()
}

// execute drives the run, streaming per-tick reports when watching.
// Interrupts cancel a watched run between ticks; the completed ticks
// are still reported and archived.
func execute(m *sim.Model, steps int) (*sim.Results, error) {
	if !flagWatch {
		return sim.Run(m, steps)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sim.RunStream(ctx, m, steps, flagDelay, func(s sim.StreamState) {
		attrs := make([]any, 0, 4+2*len(s.AgentCounts))
		attrs = append(attrs, "step", s.Step, "agents", s.TotalAgents)
		for _, sp := range sortedKeys(s.AgentCounts) {
			attrs = append(attrs, sp, s.AgentCounts[sp])
		}
		slog.Info("tick", attrs...)
	})
	if errors.Is(err, context.Canceled) {
		slog.Warn("run interrupted", "completed_steps", res.Metrics.StepsCompleted)
	}
	return res, err
}

func sortedKeys(m map[string]int) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}

func archive(cfg *config.Config, res *sim.Results) {
	db, err := store.Open(flagDB)
	if err != nil {
		fail("could not open archive", err)
	}
	defer db.Close()
	if _, err := db.SaveRun(cfg, res); err != nil {
		fail("could not archive run", err)
	}
}

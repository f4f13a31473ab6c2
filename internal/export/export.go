// Package export renders finished runs for people and programs:
// indented JSON for tooling, CSV time series for plotting, and a text
// summary for the terminal.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/maps"

	"github.com/systemshift/llm-abm/internal/sim"
)

// ErrUnknownFormat is returned for formats Export does not render.
var ErrUnknownFormat = errors.New("export: unknown format")

// Formats accepted by Export.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// Export renders run results in the given format.
func Export(res *sim.Results, format string) (string, error) {
	switch format {
	case FormatJSON:
		return asJSON(res)
	case FormatCSV:
		return asCSV(res)
	case FormatSummary:
		return asSummary(res), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func asJSON(res *sim.Results) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return string(data) + "\n", nil
}

func asCSV(res *sim.Results) (string, error) {
	species := speciesColumns(res.Metrics.History, res.Metrics.FinalCounts)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(append([]string{"step", "total_agents"}, species...)); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	for _, snap := range res.Metrics.History {
		row := make([]string, 0, 2+len(species))
		row = append(row, strconv.Itoa(snap.Step), strconv.Itoa(snap.TotalAgents))
		for _, sp := range species {
			row = append(row, strconv.Itoa(snap.AgentCounts[sp]))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return b.String(), nil
}

func asSummary(res *sim.Results) string {
	m := res.Metrics
	var b strings.Builder
	fmt.Fprintf(&b, "steps completed  %s\n", humanize.Comma(int64(m.StepsCompleted)))
	if res.Model != nil {
		g := res.Model.Grid
		fmt.Fprintf(&b, "grid             %dx%d %s\n", g.Width, g.Height, g.Topology)
	}
	fmt.Fprintf(&b, "initial agents   %s\n", humanize.Comma(int64(m.InitialAgents)))
	fmt.Fprintf(&b, "final agents     %s\n", humanize.Comma(int64(m.FinalAgents)))
	if m.InitialAgents > 0 {
		rate := float64(m.FinalAgents) / float64(m.InitialAgents) * 100
		fmt.Fprintf(&b, "survival         %.1f%%\n", rate)
	}
	species := maps.Keys(m.FinalCounts)
	sort.Strings(species)
	for _, sp := range species {
		fmt.Fprintf(&b, "  %-14s %s\n", sp, humanize.Comma(int64(m.FinalCounts[sp])))
	}
	return b.String()
}

// StreamJSON renders collected stream states as one JSON object per
// line, the shape log processors expect.
func StreamJSON(states []sim.StreamState) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, s := range states {
		if err := enc.Encode(s); err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
	}
	return b.String(), nil
}

// StreamCSV renders collected stream states as a CSV time series with
// the same columns Export uses.
func StreamCSV(states []sim.StreamState) (string, error) {
	counts := make([]map[string]int, len(states))
	for i, s := range states {
		counts[i] = s.AgentCounts
	}
	species := speciesSet(counts)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(append([]string{"step", "total_agents"}, species...)); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	for _, s := range states {
		row := make([]string, 0, 2+len(species))
		row = append(row, strconv.Itoa(s.Step), strconv.Itoa(s.TotalAgents))
		for _, sp := range species {
			row = append(row, strconv.Itoa(s.AgentCounts[sp]))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return b.String(), nil
}

// speciesColumns is the sorted union of species seen anywhere in the
// run; counts of species extinct by a given tick render as 0.
func speciesColumns(history []sim.Snapshot, final map[string]int) []string {
	counts := make([]map[string]int, 0, len(history)+1)
	for _, snap := range history {
		counts = append(counts, snap.AgentCounts)
	}
	counts = append(counts, final)
	return speciesSet(counts)
}

func speciesSet(counts []map[string]int) []string {
	set := make(map[string]bool)
	for _, m := range counts {
		for sp := range m {
			set[sp] = true
		}
	}
	species := maps.Keys(set)
	sort.Strings(species)
	return species
}

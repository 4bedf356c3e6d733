package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/registry"
)

var flagLevelsDetail bool

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List all available levels",
	Long: `Shows the levels registered with the runner simulation.

With --detail every level is generated with the runner config and its
length and object counts per category and per kind are shown.`,
	Run: runLevels,
}

func init() {
	levelsCmd.Flags().BoolVar(&flagLevelsDetail, "detail", false, "Generate each level and show its contents")
}

func runLevels(_ *cobra.Command, _ []string) {
	levels := registry.List()

	if len(levels) == 0 {
		fmt.Println("No levels available.")
		return
	}

	fmt.Println("Available levels:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, l := range levels {
		if len(l.ID) > maxIDLen {
			maxIDLen = len(l.ID)
		}
	}

	if !flagLevelsDetail {
		fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
		fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")
		for _, l := range levels {
			fmt.Printf("  %-*s  %s\n", maxIDLen, l.ID, l.Title)
		}
		fmt.Println()
		fmt.Println("Run 'gdbridge run --level <id>' to start a level.")
		return
	}

	rcfg, err := config.LoadRunner(flagRunnerConfig)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("  %-*s  %-22s  %8s  %7s  %6s  %6s  %10s  %4s\n",
		maxIDLen, "ID", "Title", "Length", "Hazards", "Solids", "Portal", "Decoration", "Ship")
	kinds := make([]string, 0, len(levels))
	for _, info := range levels {
		level, err := registry.Create(info.ID)
		if err != nil {
			fatal("%v", err)
		}
		layout := level.Build(rcfg, 1)

		counts := make(map[protocol.Category]int)
		for _, o := range layout.Objects {
			counts[features.Classify(o.Desc)]++
		}
		fmt.Printf("  %-*s  %-22s  %8.0f  %7d  %6d  %6d  %10d  %4d\n",
			maxIDLen, info.ID, info.Title, layout.Length,
			counts[protocol.CategoryHazard],
			counts[protocol.CategorySolid],
			counts[protocol.CategoryPortal],
			counts[protocol.CategoryDecoration],
			len(layout.Ship),
		)
		kinds = append(kinds, fmt.Sprintf("  %-*s  %s", maxIDLen, info.ID, countLabels(layout.Objects)))
	}

	fmt.Println()
	fmt.Println("Objects by kind:")
	for _, line := range kinds {
		fmt.Println(line)
	}
}

// countLabels summarizes objects by label, e.g. "cube_portal 1, spike 40".
func countLabels(objs []features.Object) string {
	counts := make(map[string]int)
	for _, o := range objs {
		counts[features.Label(o.Desc)]++
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s %d", l, counts[l])
	}
	return strings.Join(parts, ", ")
}

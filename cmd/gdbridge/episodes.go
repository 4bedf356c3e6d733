package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/storage"
)

var (
	flagLimit  int
	flagDeaths bool
	flagClear  bool
)

// deathBarWidth is the width of the longest death map bar.
const deathBarWidth = 40

var episodesCmd = &cobra.Command{
	Use:   "episodes [level]",
	Short: "Show recorded episodes",
	Long: `Display recorded episodes, newest first, with per-level statistics.
Without a level, every level is summarized.

Examples:
  gdbridge episodes
  gdbridge episodes stereo --limit 50
  gdbridge episodes stereo --deaths
  gdbridge episodes stereo --clear`,
	Args: cobra.MaximumNArgs(1),
	Run:  runEpisodes,
}

func init() {
	episodesCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of episodes to show")
	episodesCmd.Flags().BoolVar(&flagDeaths, "deaths", false, "Show the death map (deaths per 1% of the level)")
	episodesCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete every episode of the level")
}

func runEpisodes(_ *cobra.Command, args []string) {
	cfg := loadBridgeConfig()

	store, err := storage.Open(config.ExpandHome(cfg.Storage.DBPath))
	if err != nil {
		fatal("opening episode database: %v", err)
	}
	defer store.Close()

	levelID := ""
	if len(args) == 1 {
		levelID = args[0]
	}

	switch {
	case flagClear:
		if levelID == "" {
			fmt.Fprintln(os.Stderr, "Error: --clear needs a level")
			return
		}
		if err := store.ClearEpisodes(levelID); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Cleared episodes for %s\n", levelID)
	case levelID == "":
		printAllLevels(store)
	case flagDeaths:
		printDeathMap(store, levelID)
	default:
		printLevel(store, levelID)
	}
}

func printAllLevels(store *storage.Store) {
	levels, err := store.Levels()
	if err != nil {
		fatal("%v", err)
	}
	if len(levels) == 0 {
		fmt.Println("No episodes recorded yet.")
		fmt.Println()
		fmt.Println("Run 'gdbridge run' with an agent attached to record some.")
		return
	}

	fmt.Printf("  %-12s  %8s  %9s  %7s  %7s  %12s  %s\n",
		"Level", "Episodes", "Completed", "Best", "Average", "Frames", "Last played")
	fmt.Printf("  %-12s  %8s  %9s  %7s  %7s  %12s  %s\n",
		"-----", "--------", "---------", "----", "-------", "------", "-----------")
	for _, id := range levels {
		st, err := store.GetLevelStats(id)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("  %-12s  %8s  %8.1f%%  %6.2f%%  %6.2f%%  %12s  %s\n",
			id,
			humanize.Comma(int64(st.Episodes)),
			st.CompletionRate()*100,
			st.BestPercent,
			st.AvgPercent,
			humanize.Comma(st.TotalFrames),
			humanize.Time(st.LastPlayed),
		)
	}
}

func printLevel(store *storage.Store, levelID string) {
	st, err := store.GetLevelStats(levelID)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Episodes - %s\n", levelID)
	fmt.Println()
	if st.Episodes == 0 {
		fmt.Println("No episodes recorded yet.")
		return
	}

	episodes, err := store.RecentEpisodes(levelID, flagLimit)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("  %-7s  %-8s  %8s  %8s  %7s  %-9s  %s\n", "Attempt", "Reason", "Max", "Ended at", "Frames", "Duration", "When")
	fmt.Printf("  %-7s  %-8s  %8s  %8s  %7s  %-9s  %s\n", "-------", "------", "---", "--------", "------", "--------", "----")
	for _, ep := range episodes {
		fmt.Printf("  %-7d  %-8s  %7.2f%%  %7.2f%%  %7s  %-9s  %s\n",
			ep.Attempt,
			ep.Reason,
			ep.MaxPercent,
			ep.DeathPercent,
			humanize.Comma(int64(ep.Frames)),
			ep.Duration().Round(100*time.Millisecond),
			humanize.Time(ep.EndedAt),
		)
	}

	fmt.Println()
	fmt.Printf("Total: %s episodes, %s completed (%.1f%%), %s deaths, %s stuck\n",
		humanize.Comma(int64(st.Episodes)),
		humanize.Comma(int64(st.Completions)),
		st.CompletionRate()*100,
		humanize.Comma(int64(st.Deaths)),
		humanize.Comma(int64(st.Stuck)),
	)
	fmt.Printf("Best: %.2f%%  Average: %.2f%%\n", st.BestPercent, st.AvgPercent)
}

func printDeathMap(store *storage.Store, levelID string) {
	buckets, err := store.DeathMap(levelID)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Death map - %s\n", levelID)
	fmt.Println()
	if len(buckets) == 0 {
		fmt.Println("No deaths recorded yet.")
		return
	}

	peak := 0
	total := 0
	for _, b := range buckets {
		peak = max(peak, b.Deaths)
		total += b.Deaths
	}
	for _, b := range buckets {
		fmt.Printf("  %3d%%  %s  %s\n", b.Percent, deathBar(b.Deaths, peak), humanize.Comma(int64(b.Deaths)))
	}
	fmt.Println()
	fmt.Printf("Total: %s deaths in %d buckets\n", humanize.Comma(int64(total)), len(buckets))
}

// deathBar draws deaths relative to peak, padded to deathBarWidth cells.
// Padding is by cell since every block rune is several bytes wide.
func deathBar(deaths, peak int) string {
	n := 0
	if peak > 0 && deaths > 0 {
		n = min(max(1, deaths*deathBarWidth/peak), deathBarWidth)
	}
	return strings.Repeat("█", n) + strings.Repeat(" ", deathBarWidth-n)
}

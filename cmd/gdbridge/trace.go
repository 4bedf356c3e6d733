package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/trace"
)

var (
	flagTraceObs     bool
	flagTraceSummary bool
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE...",
	Short: "Dump agent step traces",
	Long: `Decode compressed step trace files written by 'gdbridge agent --trace'
and print one line per step, or a per-episode summary.

Examples:
  gdbridge trace ~/.gdbridge/traces/trace-2026-10-18-14.cbor.zst
  gdbridge trace --summary ~/.gdbridge/traces/*.cbor.zst`,
	Args: cobra.MinimumNArgs(1),
	Run:  runTrace,
}

func init() {
	traceCmd.Flags().BoolVar(&flagTraceObs, "obs", false, "Print the observation vector of each step")
	traceCmd.Flags().BoolVar(&flagTraceSummary, "summary", false, "Print one line per episode instead of per step")
}

// episodeKey identifies one episode across trace files.
type episodeKey struct {
	session string
	episode int
}

type episodeSummary struct {
	key      episodeKey
	steps    int
	presses  int
	percent  float32
	terminal bool
}

func runTrace(_ *cobra.Command, args []string) {
	var (
		total     int
		summaries []*episodeSummary
		index     = make(map[episodeKey]*episodeSummary)
	)

	for _, path := range args {
		n, err := dumpTrace(path, func(rec *trace.Record) {
			if !flagTraceSummary {
				printRecord(rec)
				return
			}
			key := episodeKey{rec.Session, rec.Episode}
			s, ok := index[key]
			if !ok {
				s = &episodeSummary{key: key}
				index[key] = s
				summaries = append(summaries, s)
			}
			s.steps++
			if rec.Action != 0 {
				s.presses++
			}
			s.percent = max(s.percent, rec.Percent)
			s.terminal = s.terminal || rec.Terminal
		})
		total += n
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
		}
	}

	if flagTraceSummary {
		fmt.Printf("  %-8s  %7s  %6s  %7s  %7s  %s\n", "Session", "Episode", "Steps", "Presses", "Max", "End")
		fmt.Printf("  %-8s  %7s  %6s  %7s  %7s  %s\n", "-------", "-------", "-----", "-------", "---", "---")
		for _, s := range summaries {
			end := "cut"
			if s.terminal {
				end = "terminal"
			}
			fmt.Printf("  %-8s  %7d  %6s  %7s  %6.2f%%  %s\n",
				shortID(s.key.session), s.key.episode,
				humanize.Comma(int64(s.steps)), humanize.Comma(int64(s.presses)),
				s.percent, end)
		}
		fmt.Println()
	}
	fmt.Printf("%s records in %d file(s)\n", humanize.Comma(int64(total)), len(args))
}

// dumpTrace decodes every record of one file. A truncated tail, which an
// agent killed mid-write leaves behind, ends the file without failing it.
func dumpTrace(path string, fn func(*trace.Record)) (int, error) {
	r, err := trace.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for {
		var rec trace.Record
		err := r.Next(&rec)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("truncated after %d records", n)
		}
		if err != nil {
			return n, err
		}
		fn(&rec)
		n++
	}
}

func printRecord(rec *trace.Record) {
	fmt.Printf("%s ep=%d step=%-5d act=%d pct=%6.2f%% hazard=%-8s solid=%-8s mode=%-6s",
		shortID(rec.Session), rec.Episode, rec.Step, rec.Action, rec.Percent,
		formatDistance(rec.Hazard), formatDistance(rec.Solid), protocol.Mode(rec.Mode))
	if rec.Terminal {
		fmt.Print(" terminal")
	}
	fmt.Println()
	if flagTraceObs && len(rec.Obs) > 0 {
		fmt.Printf("    obs %v\n", rec.Obs)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

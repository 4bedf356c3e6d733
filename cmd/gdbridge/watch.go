package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/platform/tui"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

var flagOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor the live snapshot in this terminal",
	Long: `Show the live snapshot: player state, pending commands, nearest
distances, a radar of the slot table and the table itself.

The monitor only reads the region. It never raises the consumer flag or
writes commands, so it can run next to an agent.

Controls:
  P/Space  - Freeze the view
  T        - Toggle the slot table
  ?        - More keys
  Q/Ctrl+C - Quit

Examples:
  gdbridge watch
  gdbridge watch --once`,
	Run: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagOnce, "once", false, "Print one snapshot as text and exit")
}

func runWatch(_ *cobra.Command, _ []string) {
	cfg := loadBridgeConfig()
	region := openRegion(cfg)
	defer region.Close()

	observer, err := protocol.NewObserver(region, cfg.Sync.ConsumerSpinLimit)
	if err != nil {
		fatal("%v", err)
	}

	if flagOnce {
		var snap protocol.Snapshot
		clean := observer.Peek(&snap)
		printSnapshot(os.Stdout, &snap, observer.Commands(), clean)
		return
	}

	// Get terminal size
	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := tui.NewHub(observer, cfg.Serve.PollHz)
	sub := hub.Subscribe(4)
	// deferred after region.Close, so it runs first
	stopHub := hub.Start(ctx)
	defer stopHub()

	radar := tui.DefaultRadar()
	radar.Window = features.Window{Min: cfg.Features.WindowMin, Max: cfg.Features.WindowMax}
	if err := tui.RunMonitor(sub, cfg.Region.Name, width, height, radar); err != nil {
		fatal("%v", err)
	}
}

// printSnapshot writes a plain text dump of one snapshot.
func printSnapshot(w io.Writer, s *protocol.Snapshot, cmd protocol.CommandState, clean bool) {
	fmt.Fprintf(w, "player     x=%.2f y=%.2f vel=(%.2f, %.2f) rot=%.1f\n", s.PlayerX, s.PlayerY, s.VelX, s.VelY, s.Rotation)
	fmt.Fprintf(w, "state      mode=%s speed=%.2f gravity=%d ground=%v dead=%v terminal=%v\n",
		s.Mode, s.Speed, s.Gravity, s.OnGround, s.Dead, s.Terminal)
	fmt.Fprintf(w, "progress   %.2f%%\n", s.Percent)
	fmt.Fprintf(w, "nearest    hazard=%s solid=%s\n", formatDistance(s.Hazard), formatDistance(s.Solid))
	fmt.Fprintf(w, "commands   action=%d reset=%v checkpoint=%v\n", cmd.Action, cmd.Reset, cmd.Checkpoint)
	if !clean {
		fmt.Fprintln(w, "warning    producer was writing during the read, values may be torn")
	}

	n := s.ObjectCount()
	fmt.Fprintf(w, "objects    %d\n", n)
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "  %-3s  %-10s  %9s  %9s  %6s  %6s\n", "#", "Category", "dx", "dy", "w", "h")
	for i := 0; i < n; i++ {
		o := s.Objects[i]
		fmt.Fprintf(w, "  %-3d  %-10s  %9.1f  %9.1f  %6.0f  %6.0f\n",
			i, o.Category, o.OffsetX, o.OffsetY, o.Width, o.Height)
	}
}

func formatDistance(d float32) string {
	if d >= protocol.Sentinel {
		return "none"
	}
	return fmt.Sprintf("%.1f", d)
}

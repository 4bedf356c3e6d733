package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/platform/tui"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the snapshot monitor over SSH",
	Long: `Start an SSH server that shows the live snapshot monitor to every
connecting viewer.

The region is polled once by a shared hub; viewers only receive copies.
Nothing is ever written to the region.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.gdbridge/host_key

Examples:
  gdbridge serve                           # Listen on the configured address
  gdbridge serve --ssh :2222               # Listen on port 2222
  gdbridge serve --host-key ./my_host_key  # Use specific host key

Viewers connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes before disconnecting (0 = config)")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := newLogger("gdbridge-ssh")
	cfg := loadBridgeConfig()

	region := openRegion(cfg)
	defer region.Close()

	observer, err := protocol.NewObserver(region, cfg.Sync.ConsumerSpinLimit)
	if err != nil {
		fatal("%v", err)
	}

	scfg := tui.SSHServerConfig{
		Address:     cfg.Serve.Address,
		HostKeyPath: cfg.Serve.HostKeyPath,
		Region:      cfg.Region.Name,
		IdleTimeout: cfg.Serve.IdleTimeout,
	}
	scfg.Radar = tui.DefaultRadar()
	scfg.Radar.Window = features.Window{Min: cfg.Features.WindowMin, Max: cfg.Features.WindowMax}
	if flagSSHAddr != "" {
		scfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		scfg.HostKeyPath = flagHostKey
	}
	if flagIdleTimeout > 0 {
		scfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}

	hub := tui.NewHub(observer, cfg.Serve.PollHz)
	server, err := tui.NewSSHServer(scfg, hub, logger)
	if err != nil {
		fatal("creating server: %v", err)
	}

	fmt.Printf("Serving monitor for region %q on %s\n", cfg.Region.Name, scfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx); err != nil {
		fatal("server: %v", err)
	}
}

// gdbridge runs and inspects the shared memory bridge between a runner
// simulation and an out-of-process agent.
//
// Usage:
//
//	gdbridge run                 - Run the simulation with the bridge attached
//	gdbridge agent               - Drive the running simulation with a scripted policy
//	gdbridge watch               - Monitor the live snapshot in the terminal
//	gdbridge serve               - Serve the monitor over SSH
//	gdbridge episodes [level]    - Show recorded episodes and death maps
//	gdbridge levels              - List available levels
//	gdbridge layout              - Print the region layout
//	gdbridge trace <file>...     - Dump recorded trajectories
//
// Global flags:
//
//	--config <path>         - Bridge config YAML
//	--runner-config <path>  - Runner config YAML
//	--region <name>         - Override the region name
//	--log-level <level>     - debug, info, warn or error
//	--db <path>             - Override the episode database path
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/bridge"
	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/shm"
	"github.com/mouradboutrid/geometry-dash-RL/internal/tracker"

	// Import levels to register them
	_ "github.com/mouradboutrid/geometry-dash-RL/internal/sim/runner"
)

var (
	// Global flags
	flagConfig       string
	flagRunnerConfig string
	flagRegion       string
	flagLogLevel     string
	flagDBPath       string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gdbridge",
	Short: "Shared memory bridge between a runner simulation and an RL agent",
	Long: `gdbridge publishes a runner simulation's per-frame state into a named
shared memory region and takes jump commands back from an agent process.

Available commands:
  run       - Run the simulation with the bridge attached (producer)
  agent     - Drive the simulation with a scripted policy (consumer)
  watch     - Monitor the live snapshot in this terminal
  serve     - Serve the monitor over SSH
  episodes  - Show recorded episodes and death maps
  levels    - List available levels
  layout    - Print the byte layout of the region
  trace     - Dump recorded trajectory files

Examples:
  gdbridge run --level stereo
  gdbridge agent --episodes 10 --trace ~/.gdbridge/traces
  gdbridge watch
  gdbridge episodes stereo --deaths`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to bridge config YAML")
	rootCmd.PersistentFlags().StringVar(&flagRunnerConfig, "runner-config", "", "Path to runner config YAML")
	rootCmd.PersistentFlags().StringVar(&flagRegion, "region", "", "Shared memory region name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to episode database (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(traceCmd)
}

// fatal prints an error and exits.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// newLogger returns a stderr logger at the level chosen by --log-level.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// loadBridgeConfig loads the bridge config and applies flag overrides.
func loadBridgeConfig() config.BridgeConfig {
	cfg, err := config.LoadBridge(flagConfig)
	if err != nil {
		fatal("%v", err)
	}
	if flagRegion != "" {
		cfg.Region.Name = flagRegion
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	return cfg
}

// bridgeConfig converts the YAML sections into the producer's config.
func bridgeConfig(cfg config.BridgeConfig) bridge.Config {
	return bridge.Config{
		RegionName:   cfg.Region.Name,
		RegionDir:    cfg.Region.Dir,
		ProducerSpin: cfg.Sync.ProducerSpinLimit,
		Window: features.Window{
			Min: cfg.Features.WindowMin,
			Max: cfg.Features.WindowMax,
		},
		Tracker: tracker.Config{
			StuckFrames:  cfg.Tracker.StuckFrames,
			StuckEpsilon: cfg.Tracker.StuckEpsilon,
			MinProgress:  cfg.Tracker.MinProgress,
			MinDt:        cfg.Tracker.MinDt,
		},
	}
}

// openRegion attaches to the producer's region or exits. Consumers fail
// fast when the producer is not running.
func openRegion(cfg config.BridgeConfig) *shm.Region {
	region, err := shm.Open(cfg.Region.Dir, cfg.Region.Name, protocol.Size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not find shared memory %q: %v\n", cfg.Region.Name, err)
		fmt.Fprintln(os.Stderr, "Start the producer first with 'gdbridge run'.")
		os.Exit(1)
	}
	return region
}

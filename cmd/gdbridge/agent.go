package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/agent"
	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/trace"
)

var (
	flagEpisodes int
	flagPolicy   string
	flagTraceDir string
	flagMaxSteps int
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Drive the running simulation with a scripted policy",
	Long: `Attach to the producer's region as the consumer and play episodes with
a scripted policy. Each episode sends a reset, then reads the snapshot and
writes the jump command once per poll until a terminal frame.

Policies:
  reactive - Jump when a hazard is close ahead, hold the ship below a ceiling
  idle     - Never press (the simulation's stuck and death detection still apply)

Examples:
  gdbridge agent
  gdbridge agent --episodes 20 --policy reactive
  gdbridge agent --trace ~/.gdbridge/traces`,
	Run: runAgent,
}

func init() {
	agentCmd.Flags().IntVar(&flagEpisodes, "episodes", 1, "Episodes to play (0 = until interrupted)")
	agentCmd.Flags().StringVar(&flagPolicy, "policy", "reactive", "Policy: reactive, idle")
	agentCmd.Flags().StringVar(&flagTraceDir, "trace", "", "Record trajectories into this directory (overrides config)")
	agentCmd.Flags().IntVar(&flagMaxSteps, "max-steps", -1, "Step cap per episode (-1 = config, 0 = unlimited)")
}

func newPolicy(name string, cfg config.AgentConfig) (agent.Policy, error) {
	switch name {
	case "reactive":
		return agent.Reactive{
			JumpDistance: float32(cfg.JumpDistance),
			ShipCeiling:  float32(cfg.ShipCeiling),
		}, nil
	case "idle":
		return agent.PolicyFunc(func(*protocol.Snapshot) int32 { return 0 }), nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}

func runAgent(_ *cobra.Command, _ []string) {
	logger := newLogger("agent")
	cfg := loadBridgeConfig()

	policy, err := newPolicy(flagPolicy, cfg.Agent)
	if err != nil {
		fatal("%v", err)
	}

	region := openRegion(cfg)
	defer region.Close()

	consumer, err := protocol.NewConsumer(region, cfg.Sync.ConsumerSpinLimit)
	if err != nil {
		fatal("%v", err)
	}
	env := agent.NewEnv(consumer, agent.OptionsFromConfig(cfg.Agent))
	loop := agent.NewLoop(env, policy, logger)

	maxSteps := cfg.Agent.MaxSteps
	if flagMaxSteps >= 0 {
		maxSteps = flagMaxSteps
	}
	loop.SetMaxSteps(maxSteps)

	traceDir := flagTraceDir
	if traceDir == "" && cfg.Trace.Enabled {
		traceDir = cfg.Trace.Dir
	}
	if traceDir != "" {
		w := trace.NewWriter(config.ExpandHome(traceDir), "trace")
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("could not close trace", "err", err)
			}
			if w.Count() > 0 {
				logger.Info("trace written", "records", w.Count(), "path", w.Path())
			}
		}()
		loop.SetTracer(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("agent attached",
		"region", cfg.Region.Name,
		"session", loop.Session(),
		"policy", flagPolicy,
		"obs", env.ObsLen(),
	)

	episodes, err := loop.Run(ctx, flagEpisodes)
	if err != nil {
		logger.Error("episode loop failed", "err", err)
	}
	printEpisodeSummary(episodes)
	if err != nil {
		os.Exit(1)
	}
}

func printEpisodeSummary(episodes []agent.Episode) {
	if len(episodes) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("  %-7s  %-7s  %-8s  %-8s  %-9s  %s\n", "Episode", "Steps", "Percent", "Terminal", "Duration", "Torn")
	fmt.Printf("  %-7s  %-7s  %-8s  %-8s  %-9s  %s\n", "-------", "-----", "-------", "--------", "--------", "----")

	var best float32
	for _, ep := range episodes {
		fmt.Printf("  %-7d  %-7d  %-8.2f  %-8v  %-9s  %d\n",
			ep.Index, ep.Steps, ep.Percent, ep.Terminal, ep.Duration.Round(10*time.Millisecond), ep.Torn)
		best = max(best, ep.Percent)
	}

	fmt.Println()
	fmt.Printf("Best: %.2f%%\n", best)
}

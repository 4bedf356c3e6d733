package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mouradboutrid/geometry-dash-RL/internal/bridge"
	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/registry"
	"github.com/mouradboutrid/geometry-dash-RL/internal/sim/runner"
	"github.com/mouradboutrid/geometry-dash-RL/internal/storage"
)

var (
	flagLevel       string
	flagPractice    bool
	flagAutoRespawn bool
	flagDifficulty  string
	flagFPS         int
	flagSeed        int64
	flagFrames      int
	flagNoRecord    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation with the bridge attached",
	Long: `Run the runner simulation headless at a fixed tick rate and publish
every frame into the shared region. Agents attach with 'gdbridge agent'.

If the region cannot be created the simulation keeps running with the
bridge disabled. Every finished attempt is recorded in the episode
database unless --no-record is given.

Difficulty options:
  easy   - Start at lowest difficulty, progresses to max
  normal - Start at 30% difficulty, progresses to max
  hard   - Start at 70% difficulty, progresses to max
  fixed  - No progression, stays at config's initial level

Examples:
  gdbridge run
  gdbridge run --level endless --difficulty hard
  gdbridge run --practice --seed 7
  gdbridge run --frames 3600 --no-record`,
	Run: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagLevel, "level", "stereo", "Level ID (see 'gdbridge levels')")
	runCmd.Flags().BoolVar(&flagPractice, "practice", false, "Practice mode: checkpoints allowed, resets restore the last one")
	runCmd.Flags().BoolVar(&flagAutoRespawn, "auto-respawn", true, "Restart automatically after a death")
	runCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	runCmd.Flags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed for generated levels (0 = random based on time)")
	runCmd.Flags().IntVar(&flagFrames, "frames", 0, "Stop after this many frames (0 = until interrupted)")
	runCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not record episodes")
}

func runRun(_ *cobra.Command, _ []string) {
	logger := newLogger("gdbridge")
	bcfg := loadBridgeConfig()

	rcfg, err := config.LoadRunner(flagRunnerConfig)
	if err != nil {
		fatal("%v", err)
	}
	if flagDifficulty != "" {
		preset := config.ParsePreset(flagDifficulty)
		if preset == "" {
			fatal("unknown difficulty %q", flagDifficulty)
		}
		config.ApplyRunnerPreset(&rcfg, preset)
	}

	level, err := registry.Create(flagLevel)
	if err != nil {
		fatal("%v (run 'gdbridge levels' to see available levels)", err)
	}
	if flagFPS <= 0 {
		fatal("--fps must be positive")
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runtime := core.RuntimeConfig{TickRate: flagFPS, Seed: seed, Practice: flagPractice}

	game := runner.New(level, rcfg)
	game.SetAutoRespawn(flagAutoRespawn)
	game.Init(runtime)

	b := bridge.New(bridgeConfig(bcfg), logger)
	if err := b.Attach(); err != nil {
		logger.Warn("running without the bridge", "err", err)
	}
	defer b.Detach()

	var (
		rec  *storage.Recorder
		best float64
	)
	if !flagNoRecord {
		store, err := storage.Open(bcfg.Storage.DBPath)
		if err != nil {
			logger.Warn("could not open episode database, episodes will not be recorded", "err", err)
		} else {
			defer store.Close()
			if best, err = store.BestPercent(level.ID()); err != nil {
				logger.Warn("could not read best progress", "err", err)
			}
			logger.Info("recording episodes", "level", level.ID(), "best", fmt.Sprintf("%.2f%%", best))
			rec = storage.NewRecorder(store, level.ID())
			defer func() {
				if err := rec.Close(); err != nil {
					logger.Error("could not save last episode", "err", err)
				}
			}()
		}
	}

	logger.Info(b.Status().String(),
		"level", level.ID(),
		"seed", seed,
		"practice", flagPractice,
		"fps", flagFPS,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := &producerLoop{game: game, bridge: b, recorder: rec, logger: logger, best: best}
	loop.run(ctx, runtime, flagFrames)

	stats := b.Stats()
	logger.Info("stopped",
		"frames", b.Frames(),
		"attempts", game.State().Attempts,
		"contended", stats.Contended,
		"spin_timeouts", stats.SpinTimeout,
		"resets", stats.Resets,
		"checkpoints", stats.Checkpoints,
	)
}

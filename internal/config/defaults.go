package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/bridge.yaml
var defaultBridgeYAML []byte

//go:embed defaults/runner.yaml
var defaultRunnerYAML []byte

// DefaultBridgeConfig returns the default bridge configuration.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Region: RegionConfig{
			Name: "GD_RL_Memory",
			Dir:  "/dev/shm",
		},
		Sync: SyncConfig{
			ProducerSpinLimit: 5000,
			ConsumerSpinLimit: 2000,
		},
		Features: FeaturesConfig{
			WindowMin: -50,
			WindowMax: 800,
		},
		Tracker: TrackerConfig{
			StuckFrames:  30,
			StuckEpsilon: 1e-4,
			MinProgress:  0.5,
			MinDt:        1e-4,
		},
		Agent: AgentConfig{
			JumpDistance: 60,
			ShipCeiling:  120,
			PollHz:       60,
			FrameSkip:    1,
			FrameStack:   1,
			ResetSettle:  500 * time.Millisecond,
		},
		Storage: StorageConfig{
			DBPath: "~/.gdbridge/episodes.db",
		},
		Trace: TraceConfig{
			Dir: "~/.gdbridge/traces",
		},
		Serve: ServeConfig{
			Address:     ":23235",
			IdleTimeout: 30 * time.Minute,
			PollHz:      30,
		},
	}
}

// DefaultRunnerConfig returns the default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Physics: RunnerPhysics{
			Gravity:      2800,
			JumpVelocity: 610,
			MaxFallSpeed: 810,
			ShipGravity:  900,
			ShipLift:     1600,
			ShipMaxSpeed: 420,
			BaseSpeed:    311.6,
		},
		Player: RunnerPlayer{
			Size: 30,
		},
		Level: RunnerLevel{
			Length:         9000,
			Ceiling:        300,
			BlockSize:      30,
			LeadIn:         600,
			MinSpacing:     150,
			MaxSpacing:     320,
			SpikeChance:    0.6,
			BlockChance:    0.3,
			DecorationRate: 0.5,
			ShipStart:      0.55,
			ShipEnd:        0.75,
			ShipGap:        150,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "progress",
				MaxAt: 100,
			},
			Scaling: ScalingConfig{
				SpeedMultiplier:  0.0,
				GapReduction:     45,
				SpacingReduction: 60,
			},
		},
	}
}

// GetDefaultYAML returns the embedded default YAML for a config name.
func GetDefaultYAML(name string) []byte {
	switch name {
	case "bridge":
		return defaultBridgeYAML
	case "runner":
		return defaultRunnerYAML
	default:
		return nil
	}
}

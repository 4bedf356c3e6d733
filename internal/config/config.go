// Package config provides YAML-based configuration loading for the bridge,
// the consumer tools and the runner simulation, plus difficulty management
// for generated levels.
package config

import "time"

// BridgeConfig contains the shared region, handshake and feature settings.
// Producer and consumer processes must agree on Region.
type BridgeConfig struct {
	Region   RegionConfig   `yaml:"region"`
	Sync     SyncConfig     `yaml:"sync"`
	Features FeaturesConfig `yaml:"features"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Agent    AgentConfig    `yaml:"agent"`
	Storage  StorageConfig  `yaml:"storage"`
	Trace    TraceConfig    `yaml:"trace"`
	Serve    ServeConfig    `yaml:"serve"`
}

// RegionConfig names the shared memory region.
type RegionConfig struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"` // tmpfs directory holding named regions
}

// SyncConfig bounds the handshake spin waits.
type SyncConfig struct {
	ProducerSpinLimit int `yaml:"producer_spin_limit"`
	ConsumerSpinLimit int `yaml:"consumer_spin_limit"`
}

// FeaturesConfig is the object relevance window.
type FeaturesConfig struct {
	WindowMin float64 `yaml:"window_min"`
	WindowMax float64 `yaml:"window_max"`
}

// TrackerConfig holds the stuck detector thresholds.
type TrackerConfig struct {
	StuckFrames  int     `yaml:"stuck_frames"`
	StuckEpsilon float64 `yaml:"stuck_epsilon"`
	MinProgress  float64 `yaml:"min_progress"` // percent
	MinDt        float64 `yaml:"min_dt"`       // seconds
}

// AgentConfig configures the consumer-side episode loop and scripted policy.
type AgentConfig struct {
	JumpDistance float64       `yaml:"jump_distance"`
	ShipCeiling  float64       `yaml:"ship_ceiling"` // ship holds while below this height
	PollHz       float64       `yaml:"poll_hz"`
	FrameSkip    int           `yaml:"frame_skip"`
	FrameStack   int           `yaml:"frame_stack"`
	ResetSettle  time.Duration `yaml:"reset_settle"`
	MaxSteps     int           `yaml:"max_steps"` // per episode, 0 = unlimited
}

// StorageConfig locates the episode database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// TraceConfig controls trajectory recording.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// ServeConfig configures the SSH monitor server.
type ServeConfig struct {
	Address     string        `yaml:"address"`
	HostKeyPath string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	PollHz      float64       `yaml:"poll_hz"`
}

// RunnerConfig contains all configuration for the runner simulation.
type RunnerConfig struct {
	Physics    RunnerPhysics    `yaml:"physics"`
	Player     RunnerPlayer     `yaml:"player"`
	Level      RunnerLevel      `yaml:"level"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// RunnerPhysics defines physics parameters in world units per second.
type RunnerPhysics struct {
	Gravity      float64 `yaml:"gravity"`
	JumpVelocity float64 `yaml:"jump_velocity"`
	MaxFallSpeed float64 `yaml:"max_fall_speed"`
	ShipGravity  float64 `yaml:"ship_gravity"`
	ShipLift     float64 `yaml:"ship_lift"`
	ShipMaxSpeed float64 `yaml:"ship_max_speed"`
	BaseSpeed    float64 `yaml:"base_speed"` // horizontal
}

// RunnerPlayer defines the player box.
type RunnerPlayer struct {
	Size float64 `yaml:"size"`
}

// RunnerLevel defines level generation parameters.
type RunnerLevel struct {
	Length         float64 `yaml:"length"`
	Ceiling        float64 `yaml:"ceiling"`
	BlockSize      float64 `yaml:"block_size"`
	LeadIn         float64 `yaml:"lead_in"` // empty run-up before the first obstacle
	MinSpacing     float64 `yaml:"min_spacing"`
	MaxSpacing     float64 `yaml:"max_spacing"`
	SpikeChance    float64 `yaml:"spike_chance"`
	BlockChance    float64 `yaml:"block_chance"`
	DecorationRate float64 `yaml:"decoration_rate"` // decorations per obstacle
	ShipStart      float64 `yaml:"ship_start"`      // fraction of length, 0 disables
	ShipEnd        float64 `yaml:"ship_end"`
	ShipGap        float64 `yaml:"ship_gap"` // corridor height in ship sections
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases along a level.
type ProgressionConfig struct {
	Type  string  `yaml:"type"`   // "progress", "time", or "none"
	MaxAt float64 `yaml:"max_at"` // percent or ticks at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	SpeedMultiplier  float64 `yaml:"speed_multiplier"`  // Multiplier added to speed at max difficulty
	GapReduction     float64 `yaml:"gap_reduction"`     // Ship corridor reduction at max difficulty
	SpacingReduction float64 `yaml:"spacing_reduction"` // Obstacle spacing reduction at max difficulty
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset maps a flag value to a preset. Unknown values yield "".
func ParsePreset(s string) DifficultyPreset {
	switch p := DifficultyPreset(s); p {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return p
	}
	return ""
}

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// IsFixedPreset returns true if the preset disables progression.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}

package config

import "math"

// DifficultyManager calculates dynamic level parameters from progress or time.
type DifficultyManager struct {
	cfg          DifficultyConfig
	initialLevel float64
}

// NewDifficultyManager creates a new difficulty manager.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{
		cfg:          cfg,
		initialLevel: clampF(cfg.InitialLevel, 0.0, 1.0),
	}
}

// SetInitialLevel overrides the initial difficulty level (0.0 to 1.0).
func (d *DifficultyManager) SetInitialLevel(level float64) {
	d.initialLevel = clampF(level, 0.0, 1.0)
}

// SetEnabled enables or disables difficulty progression.
func (d *DifficultyManager) SetEnabled(enabled bool) {
	d.cfg.Enabled = enabled
}

// IsEnabled returns whether difficulty progression is active.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.Progression.Type != "none"
}

// Level returns the difficulty level (0.0 to 1.0) at the given completion
// percent and tick count.
func (d *DifficultyManager) Level(percent float64, ticks int) float64 {
	if !d.IsEnabled() {
		return d.initialLevel
	}

	maxAt := d.cfg.Progression.MaxAt
	if maxAt <= 0 {
		maxAt = 1 // Prevent division by zero
	}

	var progress float64
	switch d.cfg.Progression.Type {
	case "progress":
		progress = percent / maxAt
	case "time":
		progress = float64(ticks) / maxAt
	default:
		return d.initialLevel
	}

	progress = clampF(progress, 0.0, 1.0)

	// Interpolate from initial level to 1.0
	return d.initialLevel + progress*(1.0-d.initialLevel)
}

// Speed returns the speed at the given point.
func (d *DifficultyManager) Speed(baseSpeed, percent float64, ticks int) float64 {
	level := d.Level(percent, ticks)
	// Speed increases from base to base * (1 + speedMultiplier)
	return baseSpeed * (1.0 + level*d.cfg.Scaling.SpeedMultiplier)
}

// GapSize returns the ship corridor height, never below floor.
func (d *DifficultyManager) GapSize(baseGap, floor, percent float64, ticks int) float64 {
	level := d.Level(percent, ticks)
	return math.Max(floor, baseGap-level*d.cfg.Scaling.GapReduction)
}

// Spacing returns the obstacle spacing, never below floor.
func (d *DifficultyManager) Spacing(baseSpacing, floor, percent float64, ticks int) float64 {
	level := d.Level(percent, ticks)
	return math.Max(floor, baseSpacing-level*d.cfg.Scaling.SpacingReduction)
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}

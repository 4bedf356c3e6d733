// Package tracker derives per-frame kinematics and a robust terminal signal
// from raw host samples: velocity from the position delta, completion
// percent, and a stuck detector for failures the host never reports as death.
package tracker

import "math"

// Config holds the tracker thresholds.
type Config struct {
	StuckFrames  int     // consecutive stalled frames tolerated before stuck death
	StuckEpsilon float64 // percent change below which a frame counts as stalled
	MinProgress  float64 // stalls at or below this percent are ignored (level start)
	MinDt        float64 // frame deltas at or below this yield zero velocity
}

// DefaultConfig returns the standard thresholds: 30 frames, 1e-4 percent,
// 0.5 percent, 1e-4 seconds.
func DefaultConfig() Config {
	return Config{
		StuckFrames:  30,
		StuckEpsilon: 1e-4,
		MinProgress:  0.5,
		MinDt:        1e-4,
	}
}

// Sample is one frame of raw host state.
type Sample struct {
	X           float64
	Dt          float64
	LevelLength float64
	Dead        bool // host-reported death
}

// Result is the derived state for one frame.
type Result struct {
	VelX      float64
	Percent   float64
	StuckDead bool
	Dead      bool // host death or stuck death
	Complete  bool
	Terminal  bool
}

// Tracker carries state between frames. The zero value with a config from
// DefaultConfig is ready to use after Reset.
type Tracker struct {
	cfg Config

	LastX       float64
	LastPercent float64
	StuckFrames int

	stuck bool
}

// New returns a tracker with zeroed state.
func New(cfg Config) *Tracker {
	if cfg.StuckFrames <= 0 {
		cfg.StuckFrames = DefaultConfig().StuckFrames
	}
	return &Tracker{cfg: cfg}
}

// Config returns the tracker thresholds.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Reset zeroes the tracker. Call on every level start and reset.
func (t *Tracker) Reset() {
	t.LastX = 0
	t.LastPercent = 0
	t.StuckFrames = 0
	t.stuck = false
}

// Update consumes one sample. Velocity uses the previous position; percent
// and the stuck counter use the new one.
func (t *Tracker) Update(s Sample) Result {
	var r Result

	if s.Dt > t.cfg.MinDt {
		r.VelX = (s.X - t.LastX) / s.Dt
	}
	t.LastX = s.X

	if s.LevelLength > 0 {
		r.Percent = s.X / s.LevelLength * 100
	}

	if math.Abs(r.Percent-t.LastPercent) < t.cfg.StuckEpsilon && r.Percent > t.cfg.MinProgress && !s.Dead {
		t.StuckFrames++
	} else {
		t.StuckFrames = 0
	}
	t.LastPercent = r.Percent

	// Once stuck the attempt is over; only a reset clears it.
	if t.StuckFrames > t.cfg.StuckFrames {
		t.stuck = true
	}

	r.StuckDead = t.stuck
	r.Dead = s.Dead || t.stuck
	r.Complete = r.Percent >= 100
	r.Terminal = r.Dead || r.Complete
	return r
}

package core

// RuntimeConfig contains configuration passed to the host simulation at
// initialization. The tick rate drives the producer frame loop.
type RuntimeConfig struct {
	TickRate int   // Simulation ticks per second (default 60)
	Seed     int64 // RNG seed for generated levels
	Practice bool  // Checkpoint-capable mode
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		TickRate: 60,
		Seed:     0, // 0 means use current time in the platform layer
	}
}

// FrameDelta returns the nominal frame period in seconds.
func (c RuntimeConfig) FrameDelta() float64 {
	if c.TickRate <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(c.TickRate)
}

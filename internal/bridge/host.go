package bridge

import (
	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/input"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// Player is the host's view of the player for one frame.
type Player struct {
	X, Y       float64   // position used for progress
	Box        core.Rect // collision box used for object offsets
	VelY       float64
	Rotation   float64
	UpsideDown bool
	OnGround   bool
	Dead       bool
	Mode       protocol.Mode
	Speed      float64
}

// Host is the simulation the bridge is embedded in.
type Host interface {
	input.Button

	// Player returns the current player state.
	Player() Player

	// Objects returns the level's objects. The slice may be reused by the host
	// between frames; the bridge does not retain it.
	Objects() []features.Object

	// LevelLength returns the x coordinate at which the level is complete.
	LevelLength() float64

	// PracticeMode reports whether checkpoints can be created.
	PracticeMode() bool

	// ResetLevel restarts the attempt. It may re-enter level initialization.
	ResetLevel()

	// CreateCheckpoint places a checkpoint at the player's position.
	CreateCheckpoint()
}

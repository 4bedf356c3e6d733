// Package input turns the level-triggered action command into press and
// release edges against the host's button API.
package input

// Button is the host input API. Calls are only made on transitions.
type Button interface {
	PushButton()
	ReleaseButton()
}

// Edge is the transition emitted for one frame.
type Edge int

const (
	EdgeNone Edge = iota
	EdgePress
	EdgeRelease
)

// String returns a human-readable name for the edge.
func (e Edge) String() string {
	switch e {
	case EdgePress:
		return "press"
	case EdgeRelease:
		return "release"
	default:
		return "none"
	}
}

// Channel tracks whether the button is held and emits edges on change.
type Channel struct {
	holding bool
	presses uint64
}

// Apply samples the action for this frame and calls btn on a transition.
// Any non-zero action means press.
func (c *Channel) Apply(action int32, btn Button) Edge {
	want := action != 0
	switch {
	case want && !c.holding:
		c.holding = true
		c.presses++
		if btn != nil {
			btn.PushButton()
		}
		return EdgePress
	case !want && c.holding:
		c.holding = false
		if btn != nil {
			btn.ReleaseButton()
		}
		return EdgeRelease
	}
	return EdgeNone
}

// Holding reports whether the button is currently pressed.
func (c *Channel) Holding() bool {
	return c.holding
}

// Presses returns the number of press edges since the last reset.
func (c *Channel) Presses() uint64 {
	return c.presses
}

// Reset forgets the held state. The host is expected to have released its
// input as part of the level reset, so no release edge is emitted.
func (c *Channel) Reset() {
	c.holding = false
	c.presses = 0
}

package agent

import "github.com/mouradboutrid/geometry-dash-RL/internal/protocol"

// Policy picks the action command for a snapshot: 0 release, 1 press.
type Policy interface {
	Act(s *protocol.Snapshot) int32
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(s *protocol.Snapshot) int32

// Act calls f.
func (f PolicyFunc) Act(s *protocol.Snapshot) int32 { return f(s) }

// Reactive is a scripted policy used to verify the link end to end.
// The cube jumps when a hazard is close ahead; the ship holds while it is
// below ShipCeiling.
type Reactive struct {
	JumpDistance float32
	ShipCeiling  float32
}

// Act implements Policy.
func (p Reactive) Act(s *protocol.Snapshot) int32 {
	if s.Dead || s.Terminal {
		return 0
	}
	if s.Mode == protocol.ModeShip {
		if s.PlayerY < p.ShipCeiling {
			return 1
		}
		return 0
	}
	if s.OnGround && s.Hazard > 0 && s.Hazard < p.JumpDistance {
		return 1
	}
	return 0
}

// Package agent is the consumer side tooling: it turns snapshots into
// observation vectors, drives episodes through the shared region and
// provides a scripted policy to exercise the link.
package agent

import (
	"math"

	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// playerFeatures is the number of leading player features.
const playerFeatures = 4

// slotFeatures is the number of features per object slot.
const slotFeatures = 5

// ObsSize is the length of one observation vector.
const ObsSize = playerFeatures + protocol.MaxObjects*slotFeatures

// Scale factors applied to raw snapshot values.
const (
	scaleVelY     = 30
	scaleY        = 900
	scaleDX       = 1000
	scaleDY       = 300
	scaleSize     = 50
	scaleCategory = 10
)

// Normalize writes the observation for s into dst, growing it if needed,
// and returns it. NaN becomes 0, +Inf becomes 1 and -Inf becomes -1.
//
// Empty slots are kept as they are published (sentinel offset, category -1)
// so the vector length never changes.
func Normalize(s *protocol.Snapshot, dst []float32) []float32 {
	if cap(dst) < ObsSize {
		dst = make([]float32, ObsSize)
	}
	dst = dst[:ObsSize]

	dst[0] = s.VelY / scaleVelY
	dst[1] = s.PlayerY / scaleY
	dst[2] = boolF(s.OnGround)
	dst[3] = float32(s.Mode)

	for i, o := range s.Objects {
		base := playerFeatures + i*slotFeatures
		dst[base] = o.OffsetX / scaleDX
		dst[base+1] = o.OffsetY / scaleDY
		dst[base+2] = o.Width / scaleSize
		dst[base+3] = o.Height / scaleSize
		dst[base+4] = float32(o.Category) / scaleCategory
	}

	for i, v := range dst {
		dst[i] = sanitize(v)
	}
	return dst
}

func sanitize(v float32) float32 {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return 1
	case math.IsInf(f, -1):
		return -1
	}
	return v
}

func boolF(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

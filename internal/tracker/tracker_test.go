package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVelocityAndPercent(t *testing.T) {
	tr := New(DefaultConfig())
	tr.LastX = 90

	r := tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	assert.InDelta(t, 625.0, r.VelX, 1e-9)
	assert.InDelta(t, 10.0, r.Percent, 1e-9)
	assert.Equal(t, 100.0, tr.LastX)
	assert.False(t, r.Terminal)
}

func TestZeroDtGivesZeroVelocity(t *testing.T) {
	for _, dt := range []float64{0, -0.01, 1e-5, 1e-4} {
		tr := New(DefaultConfig())
		r := tr.Update(Sample{X: 50, Dt: dt, LevelLength: 1000})
		assert.Zero(t, r.VelX, "dt=%v", dt)
		assert.Equal(t, 50.0, tr.LastX, "position still recorded")
	}
}

func TestZeroLevelLength(t *testing.T) {
	tr := New(DefaultConfig())
	r := tr.Update(Sample{X: 500, Dt: 0.016})
	assert.Zero(t, r.Percent)
	assert.False(t, r.Complete)
}

func TestStuckBecomesTerminalOnFrame31(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000}) // 10%, moving

	for frame := 1; frame <= 30; frame++ {
		r := tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
		assert.False(t, r.Terminal, "frame %d", frame)
	}

	r := tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	assert.True(t, r.StuckDead)
	assert.True(t, r.Dead)
	assert.True(t, r.Terminal)

	r = tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	assert.True(t, r.Terminal, "stays terminal while held")
	r = tr.Update(Sample{X: 110, Dt: 0.016, LevelLength: 1000})
	assert.True(t, r.Terminal, "stays terminal until a reset")

	tr.Reset()
	r = tr.Update(Sample{X: 110, Dt: 0.016, LevelLength: 1000})
	assert.False(t, r.Terminal)
	assert.Equal(t, 0, tr.StuckFrames)
}

func TestStuckIgnoredNearStart(t *testing.T) {
	tr := New(DefaultConfig())
	for i := 0; i < 100; i++ {
		r := tr.Update(Sample{X: 4, Dt: 0.016, LevelLength: 1000}) // 0.4%
		assert.False(t, r.Terminal)
	}
	assert.Equal(t, 0, tr.StuckFrames)
}

func TestStuckCounterResetsOnMovementAndDeath(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	for i := 0; i < 20; i++ {
		tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	}
	assert.Equal(t, 20, tr.StuckFrames)

	tr.Update(Sample{X: 101, Dt: 0.016, LevelLength: 1000})
	assert.Equal(t, 0, tr.StuckFrames)

	tr.Update(Sample{X: 101, Dt: 0.016, LevelLength: 1000})
	assert.Equal(t, 1, tr.StuckFrames)
	r := tr.Update(Sample{X: 101, Dt: 0.016, LevelLength: 1000, Dead: true})
	assert.Equal(t, 0, tr.StuckFrames)
	assert.True(t, r.Dead)
	assert.False(t, r.StuckDead)
	assert.True(t, r.Terminal)
}

func TestCompletion(t *testing.T) {
	tr := New(DefaultConfig())
	r := tr.Update(Sample{X: 999, Dt: 0.016, LevelLength: 1000})
	assert.False(t, r.Complete)
	r = tr.Update(Sample{X: 1000, Dt: 0.016, LevelLength: 1000})
	assert.True(t, r.Complete)
	assert.True(t, r.Terminal)
	assert.False(t, r.Dead)
}

func TestCustomThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StuckFrames = 3
	tr := New(cfg)
	tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	var r Result
	for i := 0; i < 4; i++ {
		r = tr.Update(Sample{X: 100, Dt: 0.016, LevelLength: 1000})
	}
	assert.True(t, r.StuckDead)
}

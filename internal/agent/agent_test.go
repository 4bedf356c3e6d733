package agent

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/shm"
	"github.com/mouradboutrid/geometry-dash-RL/internal/trace"
)

func emptySnapshot() protocol.Snapshot {
	var s protocol.Snapshot
	for i := range s.Objects {
		s.Objects[i] = protocol.EmptySlot
	}
	s.Hazard = protocol.Sentinel
	s.Solid = protocol.Sentinel
	return s
}

func TestNormalizeLayout(t *testing.T) {
	s := emptySnapshot()
	s.VelY = 15
	s.PlayerY = 450
	s.OnGround = true
	s.Mode = protocol.ModeShip
	s.Objects[0] = protocol.ObjectSlot{OffsetX: 500, OffsetY: -150, Width: 25, Height: 100, Category: protocol.CategoryHazard}

	obs := Normalize(&s, nil)
	require.Len(t, obs, 154)
	assert.Equal(t, []float32{0.5, 0.5, 1, 1}, obs[:4])
	assert.Equal(t, []float32{0.5, -0.5, 0.5, 2, 0.1}, obs[4:9])

	// padding keeps its published values
	assert.InDelta(t, 9.999, obs[9], 1e-6)
	assert.InDelta(t, -0.1, obs[13], 1e-6)
}

func TestNormalizeSanitizes(t *testing.T) {
	s := emptySnapshot()
	s.VelY = float32(math.NaN())
	s.PlayerY = float32(math.Inf(1))
	s.Objects[2].OffsetY = float32(math.Inf(-1))

	obs := Normalize(&s, nil)
	assert.Equal(t, float32(0), obs[0])
	assert.Equal(t, float32(1), obs[1])
	assert.Equal(t, float32(-1), obs[4+2*5+1])
}

func TestNormalizeReusesBuffer(t *testing.T) {
	s := emptySnapshot()
	buf := make([]float32, 0, 200)
	obs := Normalize(&s, buf)
	assert.Len(t, obs, ObsSize)
	assert.Equal(t, &buf[:1][0], &obs[0])
}

func TestReactivePolicy(t *testing.T) {
	p := Reactive{JumpDistance: 60, ShipCeiling: 120}
	tests := []struct {
		name string
		edit func(*protocol.Snapshot)
		want int32
	}{
		{"nothing ahead", func(s *protocol.Snapshot) { s.OnGround = true }, 0},
		{"hazard close", func(s *protocol.Snapshot) { s.OnGround = true; s.Hazard = 40 }, 1},
		{"hazard far", func(s *protocol.Snapshot) { s.OnGround = true; s.Hazard = 200 }, 0},
		{"hazard close airborne", func(s *protocol.Snapshot) { s.Hazard = 40 }, 0},
		{"hazard overlapping", func(s *protocol.Snapshot) { s.OnGround = true; s.Hazard = 0 }, 0},
		{"ship low", func(s *protocol.Snapshot) { s.Mode = protocol.ModeShip; s.PlayerY = 50 }, 1},
		{"ship high", func(s *protocol.Snapshot) { s.Mode = protocol.ModeShip; s.PlayerY = 150 }, 0},
		{"dead", func(s *protocol.Snapshot) { s.OnGround = true; s.Hazard = 40; s.Dead = true; s.Terminal = true }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := emptySnapshot()
			tt.edit(&s)
			assert.Equal(t, tt.want, p.Act(&s))
		})
	}
}

// fakeProducer publishes a snapshot whose percent grows by one per frame and
// turns terminal at terminalAt. A consumed reset restarts it from zero.
type fakeProducer struct {
	prod       *protocol.Producer
	terminalAt float32

	resets  atomic.Int32
	presses atomic.Int32
	stop    chan struct{}
	wg      sync.WaitGroup
}

func startProducer(t *testing.T, mem protocol.Memory, terminalAt float32) *fakeProducer {
	t.Helper()
	prod, err := protocol.NewProducer(mem, 0)
	require.NoError(t, err)
	prod.Clear()

	fp := &fakeProducer{prod: prod, terminalAt: terminalAt, stop: make(chan struct{})}
	fp.wg.Add(1)
	go fp.run()
	t.Cleanup(func() {
		close(fp.stop)
		fp.wg.Wait()
	})
	return fp
}

func (fp *fakeProducer) run() {
	defer fp.wg.Done()
	s := emptySnapshot()
	for {
		select {
		case <-fp.stop:
			return
		default:
		}
		if fp.prod.TakeReset() {
			fp.resets.Add(1)
			s.Percent = 0
			s.Terminal = false
		}
		if !s.Terminal {
			s.Percent++
		}
		s.Terminal = s.Percent >= fp.terminalAt
		s.Dead = s.Terminal
		s.OnGround = true
		s.Hazard = 30
		fp.prod.Publish(&s)
		if fp.prod.Action() == 1 {
			fp.presses.Add(1)
		}
		time.Sleep(200 * time.Microsecond)
	}
}

func newTestEnv(t *testing.T, opts Options) (*Env, *shm.Region) {
	t.Helper()
	mem := shm.NewMemory("agent-test", protocol.Size)
	c, err := protocol.NewConsumer(mem, 0)
	require.NoError(t, err)
	return NewEnv(c, opts), mem
}

func fastOptions() Options {
	return Options{PollHz: 2000, FrameSkip: 1, FrameStack: 1, ResetSettle: 2 * time.Millisecond}
}

func TestEnvDefaults(t *testing.T) {
	env, _ := newTestEnv(t, Options{})
	opts := env.Options()
	assert.Equal(t, 60.0, opts.PollHz)
	assert.Equal(t, 1, opts.FrameSkip)
	assert.Equal(t, 1, opts.FrameStack)
	assert.Equal(t, ObsSize, env.ObsLen())
}

func TestEnvResetAndStep(t *testing.T) {
	env, mem := newTestEnv(t, fastOptions())
	fp := startProducer(t, mem, 1e9)
	ctx := context.Background()

	obs, err := env.Reset(ctx)
	require.NoError(t, err)
	require.Len(t, obs, ObsSize)
	assert.Eventually(t, func() bool { return fp.resets.Load() == 1 }, time.Second, time.Millisecond)

	first := env.Snapshot().Percent
	for i := 0; i < 5; i++ {
		res, err := env.Step(ctx, 0)
		require.NoError(t, err)
		assert.False(t, res.Terminal)
		assert.Equal(t, 1, res.Frames)
	}
	assert.Greater(t, env.Snapshot().Percent, first)
	assert.Equal(t, 5, env.Steps())
}

func TestEnvStopsSkipOnTerminal(t *testing.T) {
	opts := fastOptions()
	opts.FrameSkip = 1000
	env, mem := newTestEnv(t, opts)
	startProducer(t, mem, 20)
	ctx := context.Background()

	_, err := env.Reset(ctx)
	require.NoError(t, err)
	res, err := env.Step(ctx, 0)
	require.NoError(t, err)
	assert.True(t, res.Terminal)
	assert.Less(t, res.Frames, 1000)
}

func TestEnvFrameStack(t *testing.T) {
	opts := fastOptions()
	opts.FrameStack = 3
	env, mem := newTestEnv(t, opts)
	startProducer(t, mem, 1e9)
	ctx := context.Background()

	obs, err := env.Reset(ctx)
	require.NoError(t, err)
	require.Len(t, obs, 3*ObsSize)
	assert.Equal(t, obs[:ObsSize], obs[2*ObsSize:], "reset fills every stacked frame")

	prev := append([]float32(nil), obs[2*ObsSize:]...)
	res, err := env.Step(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, prev, res.Obs[ObsSize:2*ObsSize], "frames shift towards the front")
}

func TestEnvCancelled(t *testing.T) {
	opts := fastOptions()
	opts.ResetSettle = time.Hour
	env, _ := newTestEnv(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.Reset(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type memTracer struct {
	mu   sync.Mutex
	recs []trace.Record
}

func (m *memTracer) Write(rec trace.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func TestLoopRunsEpisodes(t *testing.T) {
	env, mem := newTestEnv(t, fastOptions())
	fp := startProducer(t, mem, 15)

	tracer := &memTracer{}
	loop := NewLoop(env, Reactive{JumpDistance: 60}, log.New(io.Discard))
	loop.SetTracer(tracer)
	assert.NotEmpty(t, loop.Session())

	eps, err := loop.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	for i, ep := range eps {
		assert.Equal(t, i+1, ep.Index)
		assert.True(t, ep.Terminal)
		assert.Positive(t, ep.Steps)
	}
	assert.Eventually(t, func() bool { return fp.resets.Load() == 2 }, time.Second, time.Millisecond)
	assert.Positive(t, fp.presses.Load(), "reactive policy presses with a hazard at 30")

	require.Len(t, tracer.recs, eps[0].Steps+eps[1].Steps)
	last := tracer.recs[len(tracer.recs)-1]
	assert.True(t, last.Terminal)
	assert.Equal(t, loop.Session(), last.Session)
	assert.Equal(t, 2, last.Episode)
	assert.Len(t, last.Obs, ObsSize)
}

func TestLoopMaxSteps(t *testing.T) {
	env, mem := newTestEnv(t, fastOptions())
	startProducer(t, mem, 1e9)

	loop := NewLoop(env, PolicyFunc(func(*protocol.Snapshot) int32 { return 0 }), log.New(io.Discard))
	loop.SetMaxSteps(4)

	ep, err := loop.RunEpisode(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, ep.Steps)
	assert.False(t, ep.Terminal)
}

func TestLoopCancellationEndsRun(t *testing.T) {
	env, mem := newTestEnv(t, fastOptions())
	startProducer(t, mem, 1e9)

	loop := NewLoop(env, PolicyFunc(func(*protocol.Snapshot) int32 { return 0 }), log.New(io.Discard))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	eps, err := loop.Run(ctx, 0)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.False(t, eps[0].Terminal)
}

package agent

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// Options controls how an Env paces itself against the producer.
type Options struct {
	PollHz      float64       // snapshot reads per second, roughly the producer frame rate
	FrameSkip   int           // frames an action is repeated for
	FrameStack  int           // observations concatenated per step
	ResetSettle time.Duration // wait after a reset before the first read
}

// DefaultOptions returns 60 Hz polling with no skip or stacking.
func DefaultOptions() Options {
	return Options{PollHz: 60, FrameSkip: 1, FrameStack: 1, ResetSettle: 100 * time.Millisecond}
}

// OptionsFromConfig converts the agent configuration section.
func OptionsFromConfig(cfg config.AgentConfig) Options {
	return Options{
		PollHz:      cfg.PollHz,
		FrameSkip:   cfg.FrameSkip,
		FrameStack:  cfg.FrameStack,
		ResetSettle: cfg.ResetSettle,
	}
}

// StepResult is what one Step observed.
type StepResult struct {
	Obs      []float32 // valid until the next Step or Reset
	Terminal bool
	Percent  float32
	Frames   int  // frames actually stepped, less than FrameSkip on early terminal
	Torn     bool // some read overlapped a producer write
}

// Env drives the producer through a consumer handle: Reset starts an
// attempt, Step applies one action and returns the next observation.
// An Env is not safe for concurrent use.
type Env struct {
	c       *protocol.Consumer
	opts    Options
	limiter *rate.Limiter

	snap  protocol.Snapshot
	frame []float32
	obs   []float32 // FrameStack frames, oldest first
	steps int
}

// NewEnv returns an environment over c.
func NewEnv(c *protocol.Consumer, opts Options) *Env {
	if opts.PollHz <= 0 {
		opts.PollHz = 60
	}
	if opts.FrameSkip < 1 {
		opts.FrameSkip = 1
	}
	if opts.FrameStack < 1 {
		opts.FrameStack = 1
	}
	return &Env{
		c:       c,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.PollHz), 1),
		frame:   make([]float32, ObsSize),
		obs:     make([]float32, ObsSize*opts.FrameStack),
	}
}

// Options returns the effective options.
func (e *Env) Options() Options {
	return e.opts
}

// ObsLen returns the length of the observation vectors Env returns.
func (e *Env) ObsLen() int {
	return len(e.obs)
}

// Snapshot returns the last snapshot read.
func (e *Env) Snapshot() *protocol.Snapshot {
	return &e.snap
}

// Steps returns the number of steps since the last reset.
func (e *Env) Steps() int {
	return e.steps
}

// Reset requests a level reset, waits for the producer to respawn and
// returns the first observation, every stacked frame set to it.
func (e *Env) Reset(ctx context.Context) ([]float32, error) {
	e.c.SendReset()
	e.steps = 0

	if e.opts.ResetSettle > 0 {
		t := time.NewTimer(e.opts.ResetSettle)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	e.c.Read(&e.snap)
	e.frame = Normalize(&e.snap, e.frame)
	for i := 0; i < e.opts.FrameStack; i++ {
		copy(e.obs[i*ObsSize:], e.frame)
	}
	return e.obs, nil
}

// Step writes action and repeats it for FrameSkip polls, stopping early on
// a terminal snapshot.
func (e *Env) Step(ctx context.Context, action int32) (StepResult, error) {
	var res StepResult
	e.steps++

	for f := 0; f < e.opts.FrameSkip; f++ {
		e.c.WriteAction(action)
		if err := e.wait(ctx); err != nil {
			return res, err
		}
		if !e.c.Read(&e.snap) {
			res.Torn = true
		}
		res.Frames++
		if e.snap.Terminal {
			break
		}
	}

	e.frame = Normalize(&e.snap, e.frame)
	copy(e.obs, e.obs[ObsSize:])
	copy(e.obs[len(e.obs)-ObsSize:], e.frame)

	res.Obs = e.obs
	res.Terminal = e.snap.Terminal
	res.Percent = e.snap.Percent
	return res, nil
}

// wait blocks until the limiter allows the next poll. It returns ctx.Err()
// on cancellation.
func (e *Env) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := e.limiter.Reserve()
	d := r.Delay()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

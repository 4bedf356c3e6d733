package agent

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mouradboutrid/geometry-dash-RL/internal/trace"
)

// Tracer receives one record per step. *trace.Writer implements it.
type Tracer interface {
	Write(rec trace.Record) error
}

// Episode summarizes one consumer-side attempt.
type Episode struct {
	Index    int
	Steps    int
	Percent  float32
	Terminal bool // false when cut by MaxSteps or cancellation
	Torn     int  // steps that saw an overlapping producer write
	Duration time.Duration
}

// Loop runs episodes of a policy against an Env.
type Loop struct {
	env      *Env
	policy   Policy
	logger   *log.Logger
	session  string
	tracer   Tracer
	maxSteps int
}

// NewLoop returns a loop with a fresh session ID.
func NewLoop(env *Env, policy Policy, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{env: env, policy: policy, logger: logger, session: uuid.NewString()}
}

// SetTracer records every step to t. A nil t disables tracing.
func (l *Loop) SetTracer(t Tracer) {
	l.tracer = t
}

// SetMaxSteps caps episode length. Zero means unlimited.
func (l *Loop) SetMaxSteps(n int) {
	l.maxSteps = n
}

// Session returns the loop's session ID.
func (l *Loop) Session() string {
	return l.session
}

// Run plays n episodes, or until ctx is cancelled when n <= 0. Cancellation
// ends the run without an error; the interrupted episode is included.
func (l *Loop) Run(ctx context.Context, n int) ([]Episode, error) {
	var out []Episode
	for i := 1; n <= 0 || i <= n; i++ {
		ep, err := l.RunEpisode(ctx, i)
		if ep.Steps > 0 {
			out = append(out, ep)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// RunEpisode resets the level and steps the policy until a terminal
// snapshot, the step cap or cancellation.
func (l *Loop) RunEpisode(ctx context.Context, index int) (Episode, error) {
	ep := Episode{Index: index}
	start := time.Now()

	if _, err := l.env.Reset(ctx); err != nil {
		ep.Duration = time.Since(start)
		return ep, err
	}

	for l.maxSteps <= 0 || ep.Steps < l.maxSteps {
		action := l.policy.Act(l.env.Snapshot())
		res, err := l.env.Step(ctx, action)
		if err != nil {
			ep.Duration = time.Since(start)
			return ep, err
		}
		ep.Steps++
		ep.Percent = res.Percent
		if res.Torn {
			ep.Torn++
		}
		if err := l.record(index, ep.Steps, action, res); err != nil {
			return ep, err
		}
		if res.Terminal {
			ep.Terminal = true
			break
		}
	}

	ep.Duration = time.Since(start)
	l.logger.Info("episode finished",
		"episode", index,
		"steps", ep.Steps,
		"percent", ep.Percent,
		"terminal", ep.Terminal,
	)
	return ep, nil
}

func (l *Loop) record(index, step int, action int32, res StepResult) error {
	if l.tracer == nil {
		return nil
	}
	s := l.env.Snapshot()
	obs := make([]float32, ObsSize)
	copy(obs, res.Obs[len(res.Obs)-ObsSize:])
	return l.tracer.Write(trace.Record{
		Session:  l.session,
		Episode:  index,
		Step:     step,
		UnixMs:   time.Now().UnixMilli(),
		Action:   action,
		Percent:  res.Percent,
		Hazard:   s.Hazard,
		Solid:    s.Solid,
		Mode:     int32(s.Mode),
		Terminal: res.Terminal,
		Obs:      obs,
	})
}

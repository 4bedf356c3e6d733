package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mouradboutrid/geometry-dash-RL/internal/bridge"
	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/sim/runner"
	"github.com/mouradboutrid/geometry-dash-RL/internal/storage"
)

// producerLoop is the host frame loop: step the simulation, then run the
// bridge hook, then feed the episode recorder.
type producerLoop struct {
	game     *runner.Game
	bridge   *bridge.Bridge
	recorder *storage.Recorder
	logger   *log.Logger

	attempts int
	best     float64 // furthest recorded progress on the level
}

// run ticks until ctx is done or maxFrames frames have run (0 = no limit).
func (l *producerLoop) run(ctx context.Context, runtime core.RuntimeConfig, maxFrames int) {
	ticker := time.NewTicker(time.Second / time.Duration(runtime.TickRate))
	defer ticker.Stop()

	dt := runtime.FrameDelta()
	l.attempts = l.game.State().Attempts
	for n := 0; maxFrames <= 0 || n < maxFrames; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		l.frame(dt)
	}
}

// frame runs one host frame.
func (l *producerLoop) frame(dt float64) bridge.FrameResult {
	st := l.game.Step()

	// the game restarted itself after a death
	if st.Attempts != l.attempts {
		l.attempts = st.Attempts
		l.bridge.ResetSession()
		l.resetRecorder()
	}

	res := l.bridge.Frame(l.game, dt)
	if res.Reset {
		l.attempts = l.game.State().Attempts
		l.resetRecorder()
		return res
	}
	if res.Checkpoint {
		l.logger.Info("checkpoint placed", "percent", res.Percent, "total", l.game.Checkpoints())
	}
	if !res.Published || l.recorder == nil {
		return res
	}

	ep, err := l.recorder.Frame(res.Percent, l.game.Player().X, res.Terminal, res.Reason)
	if err != nil {
		l.logger.Error("could not save episode", "err", err)
	}
	if ep != nil {
		l.logger.Info("episode",
			"attempt", ep.Attempt,
			"reason", ep.Reason,
			"percent", ep.DeathPercent,
			"frames", ep.Frames,
		)
		if ep.MaxPercent > l.best {
			l.best = ep.MaxPercent
			l.logger.Info("new best", "percent", fmt.Sprintf("%.2f%%", l.best), "attempt", ep.Attempt)
		}
	}
	return res
}

func (l *producerLoop) resetRecorder() {
	if l.recorder == nil {
		return
	}
	if _, err := l.recorder.Reset(); err != nil {
		l.logger.Error("could not save aborted episode", "err", err)
	}
}

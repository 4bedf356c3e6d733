// Package bridge is the producer hook embedded in the simulation's frame
// loop. Each Frame call applies pending one-shot commands, extracts the
// world features, publishes the snapshot through the shared region and
// applies the consumer's action to the host's button.
//
// A missing region is not fatal: the bridge reports itself disabled and
// Frame becomes a no-op while the host keeps running.
package bridge

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/input"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/shm"
	"github.com/mouradboutrid/geometry-dash-RL/internal/tracker"
)

// DefaultRegionName is the name the producer publishes under.
const DefaultRegionName = "GD_RL_Memory"

// Config configures a Bridge.
type Config struct {
	RegionName   string
	RegionDir    string
	ProducerSpin int
	Window       features.Window
	Tracker      tracker.Config
}

// DefaultConfig returns the standard bridge configuration.
func DefaultConfig() Config {
	return Config{
		RegionName:   DefaultRegionName,
		RegionDir:    shm.DefaultDir,
		ProducerSpin: protocol.DefaultProducerSpin,
		Window:       features.DefaultWindow(),
		Tracker:      tracker.DefaultConfig(),
	}
}

// Status describes the bridge's attachment.
type Status struct {
	Enabled bool
	Region  string
	Reason  string // why the bridge is disabled
}

// String renders the status for a host-side indicator.
func (s Status) String() string {
	if s.Enabled {
		return "RL bridge: connected (" + s.Region + ")"
	}
	if s.Reason == "" {
		return "RL bridge: detached"
	}
	return "RL bridge: disabled (" + s.Reason + ")"
}

// FrameResult summarizes what one Frame call did.
type FrameResult struct {
	Published  bool
	Reset      bool
	Checkpoint bool // a checkpoint was created
	Edge       input.Edge
	Terminal   bool
	Reason     string // dead, stuck or complete when Terminal
	Percent    float64
}

// Terminal reasons reported in FrameResult.
const (
	ReasonDead     = "dead"
	ReasonStuck    = "stuck"
	ReasonComplete = "complete"
)

// Bridge is the producer side of the shared snapshot protocol.
// It is driven from one goroutine, the host's frame loop.
type Bridge struct {
	cfg    Config
	logger *log.Logger

	region *shm.Region
	prod   *protocol.Producer
	status Status

	extractor *features.Extractor
	tracker   *tracker.Tracker
	channel   input.Channel

	snap     protocol.Snapshot
	result   features.Result
	frames   uint64
	terminal bool
}

// New returns a detached bridge.
func New(cfg Config, logger *log.Logger) *Bridge {
	if cfg.RegionName == "" {
		cfg.RegionName = DefaultRegionName
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{
		cfg:       cfg,
		logger:    logger,
		extractor: features.NewExtractor(cfg.Window),
		tracker:   tracker.New(cfg.Tracker),
	}
}

// Attach creates or re-attaches the named shared region. On failure the
// bridge stays usable in the disabled state and the error is returned for
// the caller to report.
func (b *Bridge) Attach() error {
	if b.status.Enabled {
		return nil
	}
	region, err := shm.Create(b.cfg.RegionDir, b.cfg.RegionName, protocol.Size)
	if err != nil {
		b.disable(err)
		return fmt.Errorf("bridge: attach %s: %w", b.cfg.RegionName, err)
	}
	if err := b.attach(region); err != nil {
		region.Close()
		return err
	}
	b.region = region
	return nil
}

// AttachMemory attaches to an already mapped region, such as an in-process
// one. The bridge does not take ownership of mem.
func (b *Bridge) AttachMemory(mem protocol.Memory) error {
	return b.attach(mem)
}

func (b *Bridge) attach(mem protocol.Memory) error {
	prod, err := protocol.NewProducer(mem, b.cfg.ProducerSpin)
	if err != nil {
		b.disable(err)
		return fmt.Errorf("bridge: %w", err)
	}
	prod.Clear()
	b.prod = prod
	b.status = Status{Enabled: true, Region: b.cfg.RegionName}
	b.ResetSession()
	b.logger.Info("bridge attached", "region", b.cfg.RegionName, "bytes", protocol.Size)
	return nil
}

func (b *Bridge) disable(err error) {
	reason := "region unavailable"
	if errors.Is(err, shm.ErrUnsupported) {
		reason = "shared memory unsupported"
	} else if errors.Is(err, shm.ErrSize) {
		reason = "region too small"
	}
	b.status = Status{Region: b.cfg.RegionName, Reason: reason}
	b.logger.Warn("bridge disabled, simulation continues without it", "region", b.cfg.RegionName, "err", err)
}

// Detach releases the region. The bridge can be attached again.
func (b *Bridge) Detach() error {
	if !b.status.Enabled {
		return nil
	}
	b.prod = nil
	b.status = Status{Region: b.cfg.RegionName}

	var err error
	if b.region != nil {
		err = b.region.Close()
		b.region = nil
	}
	b.logger.Info("bridge detached", "region", b.cfg.RegionName, "frames", b.frames)
	return err
}

// Status returns the current attachment status.
func (b *Bridge) Status() Status {
	return b.status
}

// ResetSession clears the tracker and the input channel. The bridge calls it
// on consumed resets; hosts call it when they start a new level themselves.
func (b *Bridge) ResetSession() {
	b.tracker.Reset()
	b.channel.Reset()
	b.terminal = false
}

// Snapshot returns the last published snapshot.
func (b *Bridge) Snapshot() protocol.Snapshot {
	return b.snap
}

// Frames returns the number of snapshots published since attach.
func (b *Bridge) Frames() uint64 {
	return b.frames
}

// Stats returns the producer handshake counters.
func (b *Bridge) Stats() protocol.ProducerStats {
	if b.prod == nil {
		return protocol.ProducerStats{}
	}
	return b.prod.Stats()
}

// Frame runs one producer cycle for a frame of length dt seconds.
//
// The tracker and extractor run into the bridge's own snapshot before
// Publish waits on consumer_writing, so producer_writing is raised only for
// the copy into the region. The consumer sees the same snapshot it would if
// the computation ran under the flag.
func (b *Bridge) Frame(h Host, dt float64) FrameResult {
	var res FrameResult
	if b.prod == nil {
		return res
	}

	// Commands are cleared before acting on them so a reset that re-enters
	// level setup cannot replay.
	if b.prod.TakeReset() {
		b.ResetSession()
		h.ResetLevel()
		b.logger.Debug("reset consumed")
		res.Reset = true
		return res
	}
	if b.prod.TakeCheckpoint() && h.PracticeMode() {
		h.CreateCheckpoint()
		b.logger.Debug("checkpoint created", "x", h.Player().X)
		res.Checkpoint = true
	}

	p := h.Player()
	tr := b.tracker.Update(tracker.Sample{
		X:           p.X,
		Dt:          dt,
		LevelLength: h.LevelLength(),
		Dead:        p.Dead,
	})
	b.extractor.Extract(p.Box, h.Objects(), &b.result)

	b.fill(p, tr)
	b.prod.Publish(&b.snap)
	b.frames++
	res.Published = true
	res.Terminal = tr.Terminal
	res.Percent = tr.Percent

	if tr.Terminal {
		res.Reason = terminalReason(p, tr)
		if !b.terminal {
			b.logger.Debug("terminal", "reason", res.Reason, "percent", tr.Percent)
		}
	}
	b.terminal = tr.Terminal

	res.Edge = b.channel.Apply(b.prod.Action(), h)
	return res
}

func terminalReason(p Player, tr tracker.Result) string {
	switch {
	case p.Dead:
		return ReasonDead
	case tr.StuckDead:
		return ReasonStuck
	case tr.Complete:
		return ReasonComplete
	}
	return ReasonDead
}

func (b *Bridge) fill(p Player, tr tracker.Result) {
	s := &b.snap
	s.PlayerX = float32(p.X)
	s.PlayerY = float32(p.Y)
	s.VelX = float32(tr.VelX)
	s.VelY = float32(p.VelY)
	s.Rotation = float32(p.Rotation)
	s.Gravity = 1
	if p.UpsideDown {
		s.Gravity = -1
	}
	s.OnGround = p.OnGround
	s.Dead = tr.Dead
	s.Terminal = tr.Terminal
	s.Percent = float32(tr.Percent)
	s.Hazard = b.result.Hazard
	s.Solid = b.result.Solid
	s.Mode = p.Mode
	s.Speed = float32(p.Speed)
	s.Objects = b.result.Slots
}

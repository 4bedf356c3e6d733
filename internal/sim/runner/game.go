// Package runner implements a side-scrolling runner in the style of
// Geometry Dash. It is the host simulation the bridge is embedded in: it
// advances at a fixed tick, exposes its player and objects through the
// bridge.Host interface, and takes its input as button presses.
package runner

import (
	"math"
	"sort"

	"github.com/mouradboutrid/geometry-dash-RL/internal/bridge"
	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
	"github.com/mouradboutrid/geometry-dash-RL/internal/registry"
)

// respawnTicks is how long a dead player stays dead before an automatic
// restart, when auto respawn is on.
const respawnTicks = 60

// cubeSpin is the cube's rotation rate in the air, degrees per second.
const cubeSpin = 415.0

// State is the summary of the game after a step.
type State struct {
	Ticks    int
	Attempts int
	Percent  float64
	Dead     bool
	Complete bool
}

type checkpoint struct {
	x, y, velY float64
	onGround   bool
}

// Game implements the runner logic.
type Game struct {
	cfg        config.RunnerConfig
	runtime    core.RuntimeConfig
	level      registry.Level
	layout     registry.Layout
	difficulty *config.DifficultyManager

	x, y     float64 // x is the player's center, y its bottom edge
	velY     float64
	rotation float64
	onGround bool
	dead     bool
	complete bool
	holding  bool
	mode     protocol.Mode

	ticks       int
	deadTicks   int
	attempts    int
	autoRespawn bool
	checkpoints []checkpoint
}

// New creates a game on the given level.
func New(level registry.Level, cfg config.RunnerConfig) *Game {
	return &Game{
		level: level,
		cfg:   cfg,
	}
}

// ID returns the level identifier.
func (g *Game) ID() string {
	return g.level.ID()
}

// Title returns the level's display name.
func (g *Game) Title() string {
	return g.level.Title()
}

// SetAutoRespawn makes the game restart on its own shortly after a death,
// the way the real game does when nobody sends a reset.
func (g *Game) SetAutoRespawn(on bool) {
	g.autoRespawn = on
}

// Init builds the level and starts the first attempt.
func (g *Game) Init(runtime core.RuntimeConfig) {
	g.runtime = runtime
	g.difficulty = config.NewDifficultyManager(g.cfg.Difficulty)
	g.layout = g.level.Build(g.cfg, runtime.Seed)
	g.checkpoints = g.checkpoints[:0]
	g.attempts = 0
	g.restart()
}

// restart puts the player at the start, or at the last checkpoint in practice mode.
func (g *Game) restart() {
	g.attempts++
	g.x = g.cfg.Player.Size / 2
	g.y = 0
	g.velY = 0
	g.onGround = true
	if n := len(g.checkpoints); g.runtime.Practice && n > 0 {
		cp := g.checkpoints[n-1]
		g.x, g.y, g.velY, g.onGround = cp.x, cp.y, cp.velY, cp.onGround
	}
	g.rotation = 0
	g.dead = false
	g.complete = false
	g.holding = false
	g.deadTicks = 0
	g.ticks = 0
	g.mode = g.modeAt(g.x)
}

// Step advances the game by one fixed tick.
func (g *Game) Step() State {
	dt := g.runtime.FrameDelta()

	if g.dead {
		g.deadTicks++
		if g.autoRespawn && g.deadTicks >= respawnTicks {
			g.restart()
		}
		return g.State()
	}
	if g.complete {
		return g.State()
	}

	g.ticks++
	speed := g.difficulty.Speed(g.cfg.Physics.BaseSpeed, g.percent(), g.ticks)
	prevY := g.y
	g.mode = g.modeAt(g.x)

	// Apply physics
	p := g.cfg.Physics
	if g.mode == protocol.ModeShip {
		if g.holding {
			g.velY += p.ShipLift * dt
		} else {
			g.velY -= p.ShipGravity * dt
		}
		g.velY = core.ClampF(g.velY, -p.ShipMaxSpeed, p.ShipMaxSpeed)
	} else {
		if g.holding && g.onGround {
			g.velY = p.JumpVelocity
		}
		g.velY -= p.Gravity * dt
		if g.velY < -p.MaxFallSpeed {
			g.velY = -p.MaxFallSpeed
		}
	}
	g.x += speed * dt
	g.y += g.velY * dt
	g.onGround = false

	if g.y <= 0 {
		g.y = 0
		g.velY = 0
		g.onGround = true
	}
	if g.mode == protocol.ModeShip {
		if top := g.cfg.Level.Ceiling - g.cfg.Player.Size; g.y > top {
			g.y = top
			g.velY = 0
		}
	}

	g.collide(prevY)
	g.updateRotation(speed, dt)

	if g.x >= g.layout.Length {
		g.complete = true
	}
	return g.State()
}

// collide resolves the player against nearby objects. Hazards kill, solids
// carry the player when landed on from above and kill on a side hit.
func (g *Game) collide(prevY float64) {
	box := g.box()
	objs := g.layout.Objects
	reach := box.MinX() - 4*g.cfg.Level.BlockSize
	start := sort.Search(len(objs), func(i int) bool {
		return objs[i].Box.MinX() >= reach
	})

	const tolerance = 9.0
	for i := start; i < len(objs) && objs[i].Box.MinX() < box.MaxX(); i++ {
		o := objs[i]
		if !box.Intersects(o.Box) {
			continue
		}
		switch o.Desc.Kind {
		case features.KindHazard:
			g.dead = true
			return
		case features.KindSolid:
			switch {
			case prevY >= o.Box.MaxY()-tolerance && g.velY <= 0:
				g.y = o.Box.MaxY()
				g.velY = 0
				g.onGround = true
			case g.mode == protocol.ModeShip && prevY+g.cfg.Player.Size <= o.Box.MinY()+tolerance:
				g.y = o.Box.MinY() - g.cfg.Player.Size
				g.velY = 0
			default:
				g.dead = true
				return
			}
			box = g.box()
		}
	}
}

func (g *Game) updateRotation(speed, dt float64) {
	if g.mode == protocol.ModeShip {
		g.rotation = -math.Atan2(g.velY, speed) * 180 / math.Pi
		return
	}
	if g.onGround {
		g.rotation = math.Round(g.rotation/90) * 90
		g.rotation = math.Mod(g.rotation, 360)
		return
	}
	g.rotation = math.Mod(g.rotation+cubeSpin*dt, 360)
}

func (g *Game) modeAt(x float64) protocol.Mode {
	for _, z := range g.layout.Ship {
		if z.Contains(x) {
			return protocol.ModeShip
		}
	}
	return protocol.ModeCube
}

func (g *Game) box() core.Rect {
	s := g.cfg.Player.Size
	return core.NewRect(g.x-s/2, g.y, s, s)
}

func (g *Game) percent() float64 {
	if g.layout.Length <= 0 {
		return 0
	}
	return g.x / g.layout.Length * 100
}

// State returns the current game state.
func (g *Game) State() State {
	return State{
		Ticks:    g.ticks,
		Attempts: g.attempts,
		Percent:  g.percent(),
		Dead:     g.dead,
		Complete: g.complete,
	}
}

// Layout returns the generated level.
func (g *Game) Layout() registry.Layout {
	return g.layout
}

// Player implements bridge.Host.
func (g *Game) Player() bridge.Player {
	return bridge.Player{
		X:        g.x,
		Y:        g.y,
		Box:      g.box(),
		VelY:     g.velY,
		Rotation: g.rotation,
		OnGround: g.onGround,
		Dead:     g.dead,
		Mode:     g.mode,
		Speed:    g.difficulty.Speed(1, g.percent(), g.ticks),
	}
}

// Objects implements bridge.Host.
func (g *Game) Objects() []features.Object {
	return g.layout.Objects
}

// LevelLength implements bridge.Host.
func (g *Game) LevelLength() float64 {
	return g.layout.Length
}

// PracticeMode implements bridge.Host.
func (g *Game) PracticeMode() bool {
	return g.runtime.Practice
}

// ResetLevel implements bridge.Host.
func (g *Game) ResetLevel() {
	g.restart()
}

// CreateCheckpoint implements bridge.Host. Checkpoints are only placed in
// practice mode and never on a dead player.
func (g *Game) CreateCheckpoint() {
	if !g.runtime.Practice || g.dead {
		return
	}
	g.checkpoints = append(g.checkpoints, checkpoint{x: g.x, y: g.y, velY: g.velY, onGround: g.onGround})
}

// Checkpoints returns the number of placed checkpoints.
func (g *Game) Checkpoints() int {
	return len(g.checkpoints)
}

// PushButton implements bridge.Host.
func (g *Game) PushButton() {
	g.holding = true
}

// ReleaseButton implements bridge.Host.
func (g *Game) ReleaseButton() {
	g.holding = false
}

var _ bridge.Host = (*Game)(nil)

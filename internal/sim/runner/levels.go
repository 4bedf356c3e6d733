package runner

import (
	"math/rand"
	"sort"

	"github.com/mouradboutrid/geometry-dash-RL/internal/config"
	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/registry"
)

// Object identifiers used by generated levels.
const (
	IDBlock      = 1
	IDSpike      = 8
	IDDecoration = 1700
	IDCloud      = 1716
)

// stereoSeed fixes the layout of the default level so every run, and every
// episode in the database, plays the same obstacles.
const stereoSeed = 1001

// Generator builds levels from the runner config.
type Generator struct {
	id      string
	title   string
	fixed   bool    // ignore the caller's seed
	scale   float64 // level length multiplier
	ship    bool
	hazards bool
}

// ID returns the level identifier.
func (g *Generator) ID() string {
	return g.id
}

// Title returns the display name.
func (g *Generator) Title() string {
	return g.title
}

// Build generates the layout. Objects are sorted by their left edge.
func (g *Generator) Build(cfg config.RunnerConfig, seed int64) registry.Layout {
	if g.fixed {
		seed = stereoSeed
	}
	rng := rand.New(rand.NewSource(seed))
	lv := cfg.Level
	length := lv.Length * g.scale
	block := lv.BlockSize
	if block <= 0 {
		block = 30
	}
	diff := config.NewDifficultyManager(cfg.Difficulty)

	layout := registry.Layout{Length: length}
	var zone registry.Zone
	if g.ship && lv.ShipStart > 0 && lv.ShipEnd > lv.ShipStart {
		zone = registry.Zone{Start: lv.ShipStart * length, End: lv.ShipEnd * length}
		layout.Ship = append(layout.Ship, zone)
		layout.Objects = append(layout.Objects,
			portal(zone.Start, features.PortalShip, block),
			portal(zone.End, features.PortalCube, block),
		)
	}

	x := lv.LeadIn
	end := length - 10*block
	for x < end {
		percent := x / length * 100
		width := 0.0

		switch {
		case zone.Contains(x) || zone.Contains(x+block):
			if zone.End-x < 3*block || x-zone.Start < 3*block {
				break
			}
			gap := diff.GapSize(lv.ShipGap, 3*block, percent, 0)
			width = block
			layout.Objects = append(layout.Objects, corridor(rng, x, block, gap, lv.Ceiling)...)
		case !g.hazards:
		default:
			r := rng.Float64()
			switch {
			case r < lv.SpikeChance:
				n := 1 + rng.Intn(2)
				for i := 0; i < n; i++ {
					layout.Objects = append(layout.Objects, spike(x+float64(i)*block, block))
				}
				width = float64(n) * block
			case r < lv.SpikeChance+lv.BlockChance:
				n := 1 + rng.Intn(3)
				for i := 0; i < n; i++ {
					layout.Objects = append(layout.Objects, features.Object{
						Box:  core.NewRect(x+float64(i)*block, 0, block, block),
						Desc: features.ObjectDesc{Kind: features.KindSolid, ID: IDBlock},
					})
				}
				width = float64(n) * block
			}
		}

		if rng.Float64() < lv.DecorationRate {
			id := IDDecoration
			if rng.Intn(2) == 0 {
				id = IDCloud
			}
			layout.Objects = append(layout.Objects, features.Object{
				Box:  core.NewRect(x+rng.Float64()*block, block*2+rng.Float64()*lv.Ceiling/2, block, block/2),
				Desc: features.ObjectDesc{ID: id},
			})
		}

		spacing := lv.MinSpacing
		if zone.Contains(x) {
			spacing = 3 * block
		} else if lv.MaxSpacing > lv.MinSpacing {
			spacing += rng.Float64() * (lv.MaxSpacing - lv.MinSpacing)
			spacing = diff.Spacing(spacing, lv.MinSpacing, percent, 0)
		}
		// x must advance even on steps that place nothing
		spacing = max(spacing, block)
		x += width + spacing
	}

	sort.SliceStable(layout.Objects, func(i, j int) bool {
		return layout.Objects[i].Box.MinX() < layout.Objects[j].Box.MinX()
	})
	return layout
}

// spike returns a hazard with a hitbox narrower than its block, as players expect.
func spike(x, block float64) features.Object {
	return features.Object{
		Box:  core.NewRect(x+block*0.3, 0, block*0.4, block*0.6),
		Desc: features.ObjectDesc{Kind: features.KindHazard, ID: IDSpike},
	}
}

func portal(x float64, id int, block float64) features.Object {
	return features.Object{
		Box:  core.NewRect(x, 0, block/2, block*3),
		Desc: features.ObjectDesc{ID: id},
	}
}

// corridor returns a floor pillar and a ceiling pillar leaving a gap for the ship.
func corridor(rng *rand.Rand, x, block, gap, ceiling float64) []features.Object {
	margin := block
	lo := margin + gap/2
	hi := ceiling - margin - gap/2
	mid := lo
	if hi > lo {
		mid = lo + rng.Float64()*(hi-lo)
	}
	floorTop := mid - gap/2
	ceilBottom := mid + gap/2
	return []features.Object{
		{
			Box:  core.NewRect(x, 0, block, floorTop),
			Desc: features.ObjectDesc{Kind: features.KindSolid, ID: IDBlock},
		},
		{
			Box:  core.NewRect(x, ceilBottom, block, ceiling-ceilBottom),
			Desc: features.ObjectDesc{Kind: features.KindSolid, ID: IDBlock},
		},
	}
}

// Register the levels with the registry
func init() {
	registry.Register("stereo", func() registry.Level {
		return &Generator{id: "stereo", title: "Stereo (fixed layout)", fixed: true, scale: 1, ship: true, hazards: true}
	})
	registry.Register("endless", func() registry.Level {
		return &Generator{id: "endless", title: "Endless (seeded, 10x length)", scale: 10, ship: true, hazards: true}
	})
	registry.Register("flat", func() registry.Level {
		return &Generator{id: "flat", title: "Flat (decorations only)", scale: 1}
	})
}

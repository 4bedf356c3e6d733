// Package features turns the host's object list into the reward-relevant
// view published each frame: nearest forward hazard and solid distances and
// a distance-ordered, fixed-capacity slot table.
package features

import "github.com/mouradboutrid/geometry-dash-RL/internal/protocol"

// Kind is the coarse physical type tag a host attaches to an object.
type Kind int

const (
	KindOther Kind = iota
	KindHazard
	KindSolid
)

// ObjectDesc is the tagged description classification works on.
type ObjectDesc struct {
	Kind Kind
	ID   int // host object identifier
}

// Portal identifiers. Any of them classifies as CategoryPortal.
const (
	PortalCube       = 12
	PortalShip       = 13
	PortalBall       = 47
	PortalNormalSize = 99
	PortalMini       = 101
	PortalUFO        = 111
	PortalWave       = 660
	PortalSpider     = 1331
)

var portalLabels = map[int]string{
	PortalCube:       "cube_portal",
	PortalShip:       "ship_portal",
	PortalBall:       "ball_portal",
	PortalNormalSize: "normal_portal",
	PortalMini:       "mini_portal",
	PortalUFO:        "ufo_portal",
	PortalWave:       "wave_portal",
	PortalSpider:     "spider_portal",
}

// Classify maps an object to its category. The physical type wins over the
// identifier; unknown objects are decoration.
func Classify(d ObjectDesc) protocol.Category {
	switch d.Kind {
	case KindHazard:
		return protocol.CategoryHazard
	case KindSolid:
		return protocol.CategorySolid
	}
	if _, ok := portalLabels[d.ID]; ok {
		return protocol.CategoryPortal
	}
	return protocol.CategoryDecoration
}

// Label returns a short name for the object, used by level listings.
func Label(d ObjectDesc) string {
	switch d.Kind {
	case KindHazard:
		return "spike"
	case KindSolid:
		return "solid_block"
	}
	if l, ok := portalLabels[d.ID]; ok {
		return l
	}
	return "decoration"
}

// Relevant reports whether objects of category c enter the result set.
func Relevant(c protocol.Category) bool {
	return c == protocol.CategoryHazard || c == protocol.CategorySolid || c == protocol.CategoryPortal
}

package features

import (
	"slices"

	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// Default relevance window, in world units relative to the player's front edge.
const (
	DefaultWindowMin = -50.0
	DefaultWindowMax = 800.0
)

// Object is one world object as enumerated by the host.
type Object struct {
	Box  core.Rect
	Desc ObjectDesc
}

// Window bounds the forward offsets considered relevant.
type Window struct {
	Min float64
	Max float64
}

// DefaultWindow returns the standard [-50, 800] window.
func DefaultWindow() Window {
	return Window{Min: DefaultWindowMin, Max: DefaultWindowMax}
}

// Result is the per-frame output of the extractor.
type Result struct {
	Hazard   float32 // nearest forward hazard dx, or protocol.Sentinel
	Solid    float32 // nearest forward solid dx, or protocol.Sentinel
	Slots    [protocol.MaxObjects]protocol.ObjectSlot
	Retained int // objects that passed window and classification, before the cap
}

// Count returns the number of filled slots.
func (r *Result) Count() int {
	return min(r.Retained, protocol.MaxObjects)
}

type candidate struct {
	dx, dy float64
	w, h   float64
	cat    protocol.Category
}

// Extractor computes Results. It keeps its candidate buffer between frames
// so steady-state extraction does not allocate. Not safe for concurrent use.
type Extractor struct {
	window Window
	buf    []candidate
}

// NewExtractor returns an extractor for the given window.
func NewExtractor(w Window) *Extractor {
	if w.Min > w.Max {
		w.Min, w.Max = w.Max, w.Min
	}
	return &Extractor{window: w, buf: make([]candidate, 0, 64)}
}

// Window returns the configured relevance window.
func (e *Extractor) Window() Window {
	return e.window
}

// Extract scans objs relative to the player's box and fills out.
func (e *Extractor) Extract(player core.Rect, objs []Object, out *Result) {
	e.buf = e.buf[:0]
	hazard := float64(protocol.Sentinel)
	solid := float64(protocol.Sentinel)

	front := player.MaxX()
	mid := player.MidY()

	for i := range objs {
		o := &objs[i]
		dx := o.Box.MinX() - front
		if dx < e.window.Min || dx > e.window.Max {
			continue
		}
		cat := Classify(o.Desc)
		if !Relevant(cat) {
			continue
		}

		if dx > 0 {
			if cat == protocol.CategoryHazard && dx < hazard {
				hazard = dx
			}
			if cat == protocol.CategorySolid && dx < solid {
				solid = dx
			}
		}

		e.buf = append(e.buf, candidate{
			dx:  dx,
			dy:  o.Box.MidY() - mid,
			w:   o.Box.W,
			h:   o.Box.H,
			cat: cat,
		})
	}

	slices.SortFunc(e.buf, func(a, b candidate) int {
		switch {
		case a.dx < b.dx:
			return -1
		case a.dx > b.dx:
			return 1
		}
		return 0
	})

	out.Hazard = float32(hazard)
	out.Solid = float32(solid)
	out.Retained = len(e.buf)
	for i := range out.Slots {
		if i >= len(e.buf) {
			out.Slots[i] = protocol.EmptySlot
			continue
		}
		c := e.buf[i]
		out.Slots[i] = protocol.ObjectSlot{
			OffsetX:  float32(c.dx),
			OffsetY:  float32(c.dy),
			Width:    float32(c.w),
			Height:   float32(c.h),
			Category: c.cat,
		}
	}
}

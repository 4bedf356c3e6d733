// Package core provides fundamental types and utilities shared by the bridge,
// the feature extractor and the host simulation. It has no external
// dependencies so the per-frame code stays pure and testable.
package core

// Rect is an axis-aligned bounding box in world units.
// X grows along the track, Y grows upward.
type Rect struct {
	X, Y float64 // Bottom-left corner
	W, H float64 // Width and height
}

// NewRect creates a new rectangle with the given origin and dimensions.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// MinX returns the x-coordinate of the left edge.
func (r Rect) MinX() float64 {
	return r.X
}

// MaxX returns the x-coordinate of the right edge.
func (r Rect) MaxX() float64 {
	return r.X + r.W
}

// MinY returns the y-coordinate of the bottom edge.
func (r Rect) MinY() float64 {
	return r.Y
}

// MaxY returns the y-coordinate of the top edge.
func (r Rect) MaxY() float64 {
	return r.Y + r.H
}

// MidX returns the horizontal center.
func (r Rect) MidX() float64 {
	return r.X + r.W/2
}

// MidY returns the vertical center.
func (r Rect) MidY() float64 {
	return r.Y + r.H/2
}

// Intersects returns true if this rectangle overlaps with another.
// Touching edges do not count as an overlap.
func (r Rect) Intersects(other Rect) bool {
	if r.X >= other.MaxX() || other.X >= r.MaxX() {
		return false
	}
	if r.Y >= other.MaxY() || other.Y >= r.MaxY() {
		return false
	}
	return true
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.MaxX() && y >= r.Y && y < r.MaxY()
}

// Translate returns a copy of the rectangle moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// AbsF returns the absolute value of a float64.
func AbsF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

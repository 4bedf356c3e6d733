package core

import "testing"

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Rect
		expected bool
	}{
		{
			name:     "overlapping rects",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(5, 5, 10, 10),
			expected: true,
		},
		{
			name:     "non-overlapping horizontal",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(15, 0, 10, 10),
			expected: false,
		},
		{
			name:     "non-overlapping vertical",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(0, 15, 10, 10),
			expected: false,
		},
		{
			name:     "adjacent horizontal (no overlap)",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(10, 0, 10, 10),
			expected: false,
		},
		{
			name:     "standing on top (no overlap)",
			a:        NewRect(0, 10, 10, 10),
			b:        NewRect(0, 0, 10, 10),
			expected: false,
		},
		{
			name:     "contained rect",
			a:        NewRect(0, 0, 20, 20),
			b:        NewRect(5, 5, 5, 5),
			expected: true,
		},
		{
			name:     "fractional overlap",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(9.5, 9.5, 10, 10),
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.a.Intersects(tc.b)
			if result != tc.expected {
				t.Errorf("Intersects() = %v, expected %v", result, tc.expected)
			}
			// Also test symmetry
			resultReverse := tc.b.Intersects(tc.a)
			if resultReverse != tc.expected {
				t.Errorf("Intersects() (reversed) = %v, expected %v", resultReverse, tc.expected)
			}
		})
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(5, 10, 20, 16)

	if r.MinX() != 5 || r.MaxX() != 25 {
		t.Errorf("x edges = (%v, %v), expected (5, 25)", r.MinX(), r.MaxX())
	}
	if r.MinY() != 10 || r.MaxY() != 26 {
		t.Errorf("y edges = (%v, %v), expected (10, 26)", r.MinY(), r.MaxY())
	}
	if r.MidX() != 15 || r.MidY() != 18 {
		t.Errorf("mid = (%v, %v), expected (15, 18)", r.MidX(), r.MidY())
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		x, y     float64
		expected bool
	}{
		{"inside", 15, 15, true},
		{"bottom-left corner", 10, 10, true},
		{"top-right edge (exclusive)", 30, 25, false},
		{"outside left", 5, 15, false},
		{"outside above", 15, 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Contains(tc.x, tc.y); got != tc.expected {
				t.Errorf("Contains(%v, %v) = %v, expected %v", tc.x, tc.y, got, tc.expected)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	r := NewRect(1, 2, 3, 4).Translate(10, -2)
	if r != NewRect(11, 0, 3, 4) {
		t.Errorf("Translate() = %+v", r)
	}
}

func TestClampF(t *testing.T) {
	tests := []struct {
		val, min, max, expected float64
	}{
		{5.5, 0.0, 10.0, 5.5},
		{-5.5, 0.0, 10.0, 0.0},
		{15.5, 0.0, 10.0, 10.0},
	}

	for _, tc := range tests {
		result := ClampF(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("ClampF(%f, %f, %f) = %f, expected %f", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}

func TestFrameDelta(t *testing.T) {
	if d := (RuntimeConfig{TickRate: 50}).FrameDelta(); d != 0.02 {
		t.Errorf("FrameDelta() = %v, expected 0.02", d)
	}
	if d := (RuntimeConfig{}).FrameDelta(); d != 1.0/60.0 {
		t.Errorf("FrameDelta() with zero tick rate = %v, expected 1/60", d)
	}
}

func TestAbsF(t *testing.T) {
	if AbsF(-2.5) != 2.5 || AbsF(2.5) != 2.5 || AbsF(0) != 0 {
		t.Error("AbsF returned wrong value")
	}
}

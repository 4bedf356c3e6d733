package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/features"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y, h := 0, s.Height(); y < h; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.Get(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.Get(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// Radar projects the published slot table onto a character grid. The
// horizontal axis spans the relevance window, the vertical axis spans
// ±HalfHeight world units around the player's center.
type Radar struct {
	Window     features.Window
	HalfHeight float64
	PlayerSize float64
}

// DefaultRadar matches the default extraction window and runner sizes.
func DefaultRadar() Radar {
	return Radar{Window: features.DefaultWindow(), HalfHeight: 150, PlayerSize: 30}
}

// Glyphs per category.
var categoryGlyphs = map[protocol.Category]struct {
	r rune
	c core.Color
}{
	protocol.CategoryHazard: {'▲', core.ColorRed},
	protocol.CategorySolid:  {'█', core.ColorBlue},
	protocol.CategoryPortal: {'◊', core.ColorMagenta},
}

// Draw clears s and draws the snapshot onto it.
func (r Radar) Draw(s *core.Screen, snap *protocol.Snapshot) {
	s.Clear()
	if s.Width() < 2 || s.Height() < 2 {
		return
	}

	// ground, world y = 0
	if gy, ok := r.row(s, -(float64(snap.PlayerY) + r.PlayerSize/2)); ok {
		s.DrawHLine(0, gy, s.Width(), '─', core.ColorGray)
	}

	// player's front edge
	front := r.col(s, 0)
	s.DrawVLine(front, 0, s.Height(), '┊', core.ColorGray)

	for _, o := range snap.Objects {
		if o.IsEmpty() {
			break
		}
		g, ok := categoryGlyphs[o.Category]
		if !ok {
			continue
		}
		dx, dy := float64(o.OffsetX), float64(o.OffsetY)
		w, h := float64(o.Width), float64(o.Height)
		x0, x1 := r.col(s, dx), r.col(s, dx+w)
		y0, _ := r.row(s, dy+h/2)
		y1, _ := r.row(s, dy-h/2)
		s.FillRect(x0, y0, max(x0, x1-1), y1, g.r, g.c)
	}

	playerColor := core.ColorGreen
	if snap.Dead {
		playerColor = core.ColorRed
	}
	py, _ := r.row(s, 0)
	s.Set(max(front-1, 0), py, '@', playerColor)
}

// col maps a forward offset to a column.
func (r Radar) col(s *core.Screen, dx float64) int {
	span := r.Window.Max - r.Window.Min
	if span <= 0 {
		return 0
	}
	return int(math.Floor((dx - r.Window.Min) / span * float64(s.Width())))
}

// row maps a vertical offset to a row, reporting whether it is on screen.
func (r Radar) row(s *core.Screen, dy float64) (int, bool) {
	half := r.HalfHeight
	if half <= 0 {
		half = 150
	}
	y := int(math.Floor((half - dy) / (2 * half) * float64(s.Height())))
	return y, y >= 0 && y < s.Height()
}

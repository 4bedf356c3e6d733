// Package tui is the terminal monitor for the shared snapshot region: a
// Bubble Tea model showing the live snapshot, a hub that polls the region
// once for any number of viewers, and a Wish SSH server exposing the
// monitor remotely.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg refreshes time-based parts of the view.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

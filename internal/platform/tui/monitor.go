package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mouradboutrid/geometry-dash-RL/internal/core"
	"github.com/mouradboutrid/geometry-dash-RL/internal/protocol"
)

// Monitor layout constants
const (
	radarHeight   = 11
	minWidth      = 40
	panelWidth    = 34
	idleThreshold = time.Second // no change for this long marks the producer idle
)

// hubClosedMsg is sent when the subscription ends.
type hubClosedMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	liveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	deadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// MonitorModel is the Bubble Tea model showing the live snapshot.
type MonitorModel struct {
	sub    *Subscription
	region string
	radar  Radar
	screen *core.Screen
	table  table.Model
	help   help.Model
	keys   MonitorKeyMap

	frame      FrameMsg
	hasFrame   bool
	lastChange time.Time
	lastX      float32
	lastPct    float32
	torn       int
	now        time.Time

	width     int
	height    int
	paused    bool
	showTable bool
	closed    bool
	quitting  bool
}

// NewMonitorModel creates a monitor fed by sub.
func NewMonitorModel(sub *Subscription, region string, width, height int) MonitorModel {
	h := help.New()
	h.ShowAll = false

	m := MonitorModel{
		sub:       sub,
		region:    region,
		radar:     DefaultRadar(),
		help:      h,
		keys:      DefaultMonitorKeyMap(),
		width:     max(width, minWidth),
		height:    height,
		showTable: true,
		now:       time.Now(),
	}
	m.screen = core.NewScreen(m.width-4, radarHeight)
	m.table = m.createTable()
	return m
}

// SetRadar replaces the radar projection.
func (m *MonitorModel) SetRadar(r Radar) {
	m.radar = r
}

// createTable creates the slot table sized to the window.
func (m *MonitorModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Category", Width: 10},
		{Title: "dx", Width: 9},
		{Title: "dy", Width: 9},
		{Title: "w", Width: 7},
		{Title: "h", Width: 7},
	}

	height := m.height - radarHeight - 16 // title, panels, radar border and help
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// updateTableRows fills the table from the current snapshot.
func (m *MonitorModel) updateTableRows() {
	snap := &m.frame.Snapshot
	n := snap.ObjectCount()
	rows := make([]table.Row, n)
	for i := 0; i < n; i++ {
		o := snap.Objects[i]
		rows[i] = table.Row{
			fmt.Sprintf("%d", i),
			o.Category.String(),
			fmt.Sprintf("%.1f", o.OffsetX),
			fmt.Sprintf("%.1f", o.OffsetY),
			fmt.Sprintf("%.0f", o.Width),
			fmt.Sprintf("%.0f", o.Height),
		}
	}
	m.table.SetRows(rows)
}

// Init starts listening for frames.
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.waitForFrame(), tickCmd(4))
}

// waitForFrame returns a command that waits for the next hub frame.
func (m MonitorModel) waitForFrame() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if sub == nil {
			return hubClosedMsg{}
		}
		select {
		case f := <-sub.Frames():
			return f
		case <-sub.Done():
			return hubClosedMsg{}
		}
	}
}

// Update handles messages.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			return m, nil
		case key.Matches(msg, m.keys.Table):
			m.showTable = !m.showTable
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.height = msg.Height
		m.screen.Resize(m.width-4, radarHeight)
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil

	case FrameMsg:
		m.observe(msg)
		return m, m.waitForFrame()

	case TickMsg:
		m.now = time.Time(msg)
		return m, tickCmd(4)

	case hubClosedMsg:
		m.closed = true
		return m, tea.Quit
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// observe records a frame unless the view is frozen.
func (m *MonitorModel) observe(f FrameMsg) {
	if !f.Clean {
		m.torn++
	}
	if m.paused {
		return
	}
	s := &f.Snapshot
	if !m.hasFrame || s.PlayerX != m.lastX || s.Percent != m.lastPct {
		m.lastChange = f.At
		m.lastX = s.PlayerX
		m.lastPct = s.Percent
	}
	m.frame = f
	m.hasFrame = true
	m.now = f.At
	m.updateTableRows()
}

// View renders the monitor.
func (m MonitorModel) View() string {
	if m.quitting || m.closed {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("GD RL bridge monitor"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("region "))
	b.WriteString(m.region)
	b.WriteString("  ")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if !m.hasFrame {
		b.WriteString(helpStyle.Render("\nwaiting for the first frame...\n"))
		b.WriteString(helpStyle.Render(m.help.View(m.keys)))
		return b.String()
	}

	left := panelStyle.Width(panelWidth).Render(m.playerPanel())
	right := panelStyle.Width(panelWidth).Render(m.commandPanel())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	m.radar.Draw(m.screen, &m.frame.Snapshot)
	b.WriteString(panelStyle.Render(RenderScreen(m.screen)))
	b.WriteString("\n")

	if m.showTable {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m MonitorModel) statusLine() string {
	switch {
	case !m.hasFrame:
		return warnStyle.Render("no data")
	case m.paused:
		return warnStyle.Render("frozen")
	case m.now.Sub(m.lastChange) > idleThreshold:
		return warnStyle.Render(fmt.Sprintf("idle %s", m.now.Sub(m.lastChange).Truncate(time.Second)))
	}
	return liveStyle.Render(fmt.Sprintf("live #%d", m.frame.Seq))
}

func (m MonitorModel) playerPanel() string {
	s := &m.frame.Snapshot
	gravity := "normal"
	if s.Gravity < 0 {
		gravity = "flipped"
	}

	var state string
	switch {
	case s.Dead:
		state = deadStyle.Render("DEAD")
	case s.Terminal:
		state = liveStyle.Render("COMPLETE")
	case s.OnGround:
		state = "on ground"
	default:
		state = "airborne"
	}

	lines := []string{
		row("position", fmt.Sprintf("%.1f, %.1f", s.PlayerX, s.PlayerY)),
		row("velocity", fmt.Sprintf("%.1f, %.1f", s.VelX, s.VelY)),
		row("rotation", fmt.Sprintf("%.0f°", s.Rotation)),
		row("mode", fmt.Sprintf("%s x%.2f", s.Mode, s.Speed)),
		row("gravity", gravity),
		row("state", state),
		row("progress", fmt.Sprintf("%.2f%%", s.Percent)),
	}
	return strings.Join(lines, "\n")
}

func (m MonitorModel) commandPanel() string {
	s := &m.frame.Snapshot
	c := m.frame.Commands

	action := "release"
	if c.Action != 0 {
		action = "press"
	}

	lines := []string{
		row("action", action),
		row("reset", pending(c.Reset)),
		row("checkpoint", pending(c.Checkpoint)),
		row("hazard", distance(s.Hazard)),
		row("solid", distance(s.Solid)),
		row("objects", fmt.Sprintf("%d", s.ObjectCount())),
		row("torn reads", fmt.Sprintf("%d", m.torn)),
	}
	return strings.Join(lines, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-11s", label)) + value
}

func pending(b bool) string {
	if b {
		return warnStyle.Render("pending")
	}
	return "-"
}

func distance(d float32) string {
	if d >= protocol.Sentinel {
		return "none"
	}
	return fmt.Sprintf("%.1f", d)
}

// Frame returns the frame on display.
func (m MonitorModel) Frame() (FrameMsg, bool) {
	return m.frame, m.hasFrame
}

// IsQuitting returns true if the user asked to quit.
func (m MonitorModel) IsQuitting() bool {
	return m.quitting
}

// RunMonitor runs the monitor in the local terminal until the user quits
// or the subscription ends.
func RunMonitor(sub *Subscription, region string, width, height int, radar Radar) error {
	model := NewMonitorModel(sub, region, width, height)
	model.SetRadar(radar)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

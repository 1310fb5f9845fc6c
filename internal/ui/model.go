// ABOUTME: Bubbletea model for mixer TUI
// ABOUTME: Defines display state, key handling and status updates
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/mix"
)

// TrackStatus is one row of the track table
type TrackStatus struct {
	Name     string
	Buffered int
	Capacity int
	Ended    bool
}

// StatusMsg updates TUI state. Zero values leave fields unchanged.
type StatusMsg struct {
	State      string
	PlayheadUs int64
	Muted      *bool
	Volume     int
	Sink       string
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Tracks     []TrackStatus
	Stats      *mix.StatsSnapshot
	Listeners  int
	Output     int // chunks mixed ahead of the sink
}

// Model represents the TUI state
type Model struct {
	// Engine
	state      string
	playheadUs int64
	output     int
	sink       string

	// Format
	codec      string
	sampleRate int
	channels   int
	bitDepth   int

	// Controls
	volume int
	muted  bool

	// Tracks and stats
	tracks    []TrackStatus
	stats     mix.StatsSnapshot
	listeners int

	showDebug bool
	quitting  bool

	control *Control

	// Dimensions
	width  int
	height int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	trackHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping mixer...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Resonate Mixer"))
	b.WriteString("\n\n")
	b.WriteString(m.renderEngine())
	b.WriteString(m.renderTracks())
	b.WriteString(m.renderStats())

	if m.showDebug {
		b.WriteString(m.renderDebug())
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func field(name, value string) string {
	return headerStyle.Render(name+": ") + valueStyle.Render(value) + "\n"
}

// renderEngine renders state, playhead and controls
func (m Model) renderEngine() string {
	state := m.state
	if state == "" {
		state = "stopped"
	}
	if m.muted {
		state += " (muted)"
	}

	var b strings.Builder
	b.WriteString(field("State", state))
	b.WriteString(field("Playhead", formatUs(m.playheadUs)))
	if m.codec != "" {
		b.WriteString(field("Format", fmt.Sprintf("%s %dHz %s %d-bit",
			m.codec, m.sampleRate, channelName(m.channels), m.bitDepth)))
	}
	if m.sink != "" {
		b.WriteString(field("Sink", m.sink))
	}
	b.WriteString(field("Volume", fmt.Sprintf("[%s] %d%%", renderBar(m.volume, 100, 10), m.volume)))
	b.WriteString("\n")
	return b.String()
}

// renderTracks renders per-track buffer depth
func (m Model) renderTracks() string {
	var b strings.Builder
	b.WriteString(trackHeaderStyle.Render(fmt.Sprintf("Tracks (%d)", len(m.tracks))))
	b.WriteString("\n")

	if len(m.tracks) == 0 {
		b.WriteString(valueStyle.Render("  No tracks"))
		b.WriteString("\n")
	}
	for _, t := range m.tracks {
		status := ""
		if t.Ended {
			status = " ended"
		}
		b.WriteString(fmt.Sprintf("  • %-20s", truncate(t.Name, 20)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" [%s] %d/%d%s",
			renderBar(t.Buffered, t.Capacity, 10), t.Buffered, t.Capacity, status)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderStats renders engine statistics
func (m Model) renderStats() string {
	s := m.stats
	var b strings.Builder
	b.WriteString(field("Mixed", fmt.Sprintf("%d windows, %d ahead, %.2fx realtime", s.MixedWindows, m.output, s.RealtimeFactor)))
	b.WriteString(field("Chunks", fmt.Sprintf("in: %d  dropped: %d  late: %d", s.Enqueued, s.Dropped, s.DiscardedLate)))
	if m.listeners > 0 {
		b.WriteString(field("Listeners", fmt.Sprintf("%d", m.listeners)))
	}
	b.WriteString("\n")
	return b.String()
}

// renderDebug renders detailed counters
func (m Model) renderDebug() string {
	s := m.stats
	return field("Debug", fmt.Sprintf("splits: %d  arena full: %d  aborted writes: %d  bytes: %d",
		s.Splits, s.ArenaFull, s.AbortedWrites, s.BytesWritten))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("space:Pause  m:Mute  ↑/↓:Volume  d:Debug  q:Quit")
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.control.send(ActionQuit)
		return m, tea.Quit
	case " ":
		m.control.send(ActionTogglePause)
	case "m":
		m.muted = !m.muted
		m.control.send(ActionToggleMute)
	case "up":
		m.volume = min(m.volume+5, 100)
		m.control.sendVolume(m.volume)
	case "down":
		m.volume = max(m.volume-5, 0)
		m.control.sendVolume(m.volume)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
		m.playheadUs = msg.PlayheadUs
		m.output = msg.Output
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	if msg.Sink != "" {
		m.sink = msg.Sink
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Tracks != nil {
		m.tracks = msg.Tracks
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
		m.listeners = msg.Listeners
	}
}

// Utility functions
func renderBar(value, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := max(0, min((value*width)/total, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	}
	return fmt.Sprintf("%dch", channels)
}

func formatUs(us int64) string {
	d := time.Duration(us) * time.Microsecond
	return fmt.Sprintf("%02d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, d.Milliseconds()%1000)
}

// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and carries key actions back to the mixer
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Action is a user request from the TUI
type Action int

const (
	ActionTogglePause Action = iota
	ActionToggleMute
	ActionVolume
	ActionQuit
)

// ActionMsg carries an action and, for ActionVolume, the new level
type ActionMsg struct {
	Action Action
	Volume int
}

// Control holds the channel the TUI reports actions on
type Control struct {
	Actions chan ActionMsg
	Quit    chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Actions: make(chan ActionMsg, 10),
		Quit:    make(chan struct{}, 1),
	}
}

// send never blocks the UI; a nil control is a no-op
func (c *Control) send(a Action) {
	if c == nil {
		return
	}
	if a == ActionQuit {
		select {
		case c.Quit <- struct{}{}:
		default:
		}
		return
	}
	select {
	case c.Actions <- ActionMsg{Action: a}:
	default:
	}
}

func (c *Control) sendVolume(volume int) {
	if c == nil {
		return
	}
	select {
	case c.Actions <- ActionMsg{Action: ActionVolume, Volume: volume}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(control *Control) Model {
	return Model{
		volume:  100,
		state:   "stopped",
		control: control,
	}
}

// Run creates the TUI program; the caller runs it
func Run(control *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(control), tea.WithAltScreen())
	return p, nil
}

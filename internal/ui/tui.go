// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the receiver UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg reports a volume or mute change from the keyboard
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg reports that the user quit the TUI
type QuitMsg struct{}

// VolumeControl holds channels for volume control communication
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model; playing enables the volume keys
func NewModel(volCtrl *VolumeControl, playing bool) Model {
	return Model{
		volume:     100,
		playing:    playing,
		volumeCtrl: volCtrl,
	}
}

// Run creates the TUI program; the caller starts it
func Run(volCtrl *VolumeControl, playing bool) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(volCtrl, playing), tea.WithAltScreen())
	return p, nil
}

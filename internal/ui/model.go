// ABOUTME: Bubbletea model for the receiver TUI
// ABOUTME: Shows link, stream and counter state and handles volume keys
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/sbclink"
	tea "github.com/charmbracelet/bubbletea"
)

// boxWidth is the inner width of the status box
const boxWidth = 52

// Model represents the TUI state
type Model struct {
	// Link
	connected bool
	peer      string

	// Receiver counters and stream state
	stats sbclink.ReceiverStats

	// Playback
	playing bool
	volume  int
	muted   bool

	// Debug
	showDebug  bool
	goroutines int
	memAlloc   uint64

	// Dimensions
	width  int
	height int

	volumeCtrl *VolumeControl
}

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
	if m.width == 0 {
		return "Loading..."
	}

	s := m.renderHeader()
	s += m.renderStream()
	if m.playing {
		s += m.renderVolume()
	}
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// row pads one line of content into the box
func row(format string, args ...any) string {
	return fmt.Sprintf("│ %-*s │\n", boxWidth, truncate(fmt.Sprintf(format, args...), boxWidth))
}

func rule(left, right string) string {
	return left + strings.Repeat("─", boxWidth+2) + right + "\n"
}

// renderHeader renders the link status
func (m Model) renderHeader() string {
	status := "Waiting for peer"
	if m.connected {
		status = "Connected to " + m.peer
	}

	return "┌─ SBC Link Receiver " + strings.Repeat("─", boxWidth-18) + "┐\n" +
		row("Link:   %s", status) +
		rule("├", "┤")
}

// renderStream renders the open stream or the last finished one
func (m Model) renderStream() string {
	st := m.stats
	if st.State != sbclink.StateOpen {
		s := row("No stream")
		if st.Last.Frames > 0 {
			s += row("Last:   %d frames, %v", st.Last.Frames, st.Last.Duration().Round(time.Millisecond))
		}
		return s
	}

	cur := st.Current
	return row("Stream: %s", shortID(cur.ID.String())) +
		row("Format: %s %dHz %s", cur.Format.Codec, cur.Format.SampleRate, channelName(cur.Format.Channels)) +
		row("Audio:  %v (%d frames)", cur.Duration().Round(time.Millisecond), cur.Frames)
}

// renderVolume renders speaker volume
func (m Model) renderVolume() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}
	return row("") + row("Volume: [%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon)
}

// renderStats renders receive counters
func (m Model) renderStats() string {
	st := m.stats
	return rule("├", "┤") +
		row("Packets: %d  Acks: %d  Dropped: %d", st.DataPackets, st.Acks, st.Dropped) +
		row("Frames:  %d  Repairs: %d  Errors: %d", st.Frames, st.Repairs, st.FrameErrors) +
		row("Streams: %d  Noise: %d bytes", st.Streams, st.NoiseBytes)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	help := "d:Debug  q:Quit"
	if m.playing {
		help = "↑/↓:Volume  m:Mute  " + help
	}
	return rule("├", "┤") + row("%s", help) + rule("└", "┘")
}

// renderDebug renders runtime information
func (m Model) renderDebug() string {
	return row("DEBUG:") +
		row("  Goroutines: %d", m.goroutines) +
		row("  Memory: %.1f MB", float64(m.memAlloc)/(1024*1024)) +
		row("  Stream ends: %d  Acks in: %d", m.stats.StreamEnds, m.stats.AcksIn)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		if m.playing && m.volume < 100 {
			m.volume = min(m.volume+5, 100)
			m.sendVolume()
		}
	case "down":
		if m.playing && m.volume > 0 {
			m.volume = max(m.volume-5, 0)
			m.sendVolume()
		}
	case "m":
		if m.playing {
			m.muted = !m.muted
			m.sendVolume()
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.Peer != "" {
		m.peer = msg.Peer
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
	}
}

// StatusMsg updates TUI state; zero fields leave the current value
type StatusMsg struct {
	Connected  *bool
	Peer       string
	Stats      *sbclink.ReceiverStats
	Goroutines int
	MemAlloc   uint64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len([]rune(s)) <= length {
		return s
	}
	return string([]rune(s)[:length-3]) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

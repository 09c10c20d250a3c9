// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering
package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/sbclink"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil, false)

	if model.connected {
		t.Error("expected connected to be false initially")
	}
	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.muted {
		t.Error("expected muted to be false initially")
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
}

func TestStatusMsgConnected(t *testing.T) {
	model := NewModel(nil, false)

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected, Peer: "tcp://10.0.0.2:7000"})

	if !model.connected {
		t.Error("expected connected to be true after status update")
	}
	if model.peer != "tcp://10.0.0.2:7000" {
		t.Errorf("expected peer to be set, got '%s'", model.peer)
	}

	disconnected := false
	model.applyStatus(StatusMsg{Connected: &disconnected})
	if model.connected {
		t.Error("expected connected to be false after disconnect")
	}
	if model.peer != "tcp://10.0.0.2:7000" {
		t.Error("expected peer to be kept when not set")
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel(nil, false)

	stats := sbclink.ReceiverStats{DataPackets: 12, Acks: 12, Frames: 48, Repairs: 3}
	model.applyStatus(StatusMsg{Stats: &stats})

	if model.stats.DataPackets != 12 || model.stats.Frames != 48 || model.stats.Repairs != 3 {
		t.Errorf("unexpected stats %+v", model.stats)
	}

	// a message without stats keeps them
	model.applyStatus(StatusMsg{Goroutines: 9, MemAlloc: 2048})
	if model.stats.Frames != 48 {
		t.Error("expected stats to be kept")
	}
	if model.goroutines != 9 || model.memAlloc != 2048 {
		t.Errorf("unexpected runtime stats %d %d", model.goroutines, model.memAlloc)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestVolumeKeys(t *testing.T) {
	ctrl := NewVolumeControl()
	var model tea.Model = NewModel(ctrl, true)

	model, _ = model.Update(key("down"))
	model, _ = model.Update(key("down"))
	model, _ = model.Update(key("m"))

	m := model.(Model)
	if m.volume != 90 || !m.muted {
		t.Errorf("expected volume 90 muted, got %d muted=%v", m.volume, m.muted)
	}

	var last VolumeChangeMsg
	for i := 0; i < 3; i++ {
		select {
		case last = <-ctrl.Changes:
		default:
			t.Fatalf("expected 3 volume changes, got %d", i)
		}
	}
	if last.Volume != 90 || !last.Muted {
		t.Errorf("unexpected last change %+v", last)
	}

	model, _ = model.Update(key("up"))
	model, _ = model.Update(key("up"))
	model, _ = model.Update(key("up"))
	if v := model.(Model).volume; v != 100 {
		t.Errorf("expected volume capped at 100, got %d", v)
	}
}

func TestVolumeKeysIgnoredWithoutSpeaker(t *testing.T) {
	ctrl := NewVolumeControl()
	var model tea.Model = NewModel(ctrl, false)

	model, _ = model.Update(key("down"))
	if model.(Model).volume != 100 {
		t.Error("expected volume unchanged")
	}
	if len(ctrl.Changes) != 0 {
		t.Error("expected no volume change to be sent")
	}
}

func TestQuitKey(t *testing.T) {
	ctrl := NewVolumeControl()
	model := NewModel(ctrl, false)

	_, cmd := model.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit to be signalled")
	}
}

func TestDebugToggle(t *testing.T) {
	var model tea.Model = NewModel(nil, false)
	model, _ = model.Update(key("d"))
	if !model.(Model).showDebug {
		t.Error("expected debug on")
	}
	model, _ = model.Update(key("d"))
	if model.(Model).showDebug {
		t.Error("expected debug off")
	}
}

func TestView(t *testing.T) {
	model := NewModel(nil, true)
	if model.View() != "Loading..." {
		t.Error("expected loading view before the first size message")
	}

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = updated.(Model)

	connected := true
	stats := sbclink.ReceiverStats{
		DataPackets: 5,
		State:       sbclink.StateOpen,
		Current: sbclink.StreamSummary{
			StreamInfo: sbclink.StreamInfo{
				ID:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
				Format:  audio.Format{Codec: "sbc", SampleRate: 32000, Channels: 1, BitDepth: 16},
				Started: time.Now(),
			},
			Frames:  250,
			Samples: 32000,
		},
	}
	model.applyStatus(StatusMsg{Connected: &connected, Peer: "rfcomm://38:D2:00:01:02:03/2", Stats: &stats})

	view := model.View()
	for _, want := range []string{
		"Connected to rfcomm://38:D2:00:01:02:03/2",
		"Stream: 6ba7b810",
		"Format: sbc 32000Hz Mono",
		"Audio:  1s (250 frames)",
		"Packets: 5",
		"Volume: [██████████] 100%",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	for i, line := range strings.Split(strings.TrimSuffix(view, "\n"), "\n") {
		if n := len([]rune(line)); n != boxWidth+4 {
			t.Errorf("line %d is %d wide: %q", i, n, line)
		}
	}
}

func TestViewClosedStream(t *testing.T) {
	var model tea.Model = NewModel(nil, false)
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m := model.(Model)
	stats := sbclink.ReceiverStats{
		Last: sbclink.StreamSummary{
			StreamInfo: sbclink.StreamInfo{Format: audio.Format{SampleRate: 32000, Channels: 1}},
			Frames:     500,
			Samples:    64000,
		},
	}
	m.applyStatus(StatusMsg{Stats: &stats})

	view := m.View()
	if !strings.Contains(view, "No stream") || !strings.Contains(view, "Last:   500 frames, 2s") {
		t.Errorf("unexpected view:\n%s", view)
	}
	if strings.Contains(view, "Volume") {
		t.Error("expected no volume line without a speaker")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestChannelName(t *testing.T) {
	if channelName(1) != "Mono" || channelName(2) != "Stereo" || channelName(6) != "6ch" {
		t.Error("unexpected channel names")
	}
}

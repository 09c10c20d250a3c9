// ABOUTME: Tests for the frame resynchronizer
// ABOUTME: Injects offsets and truncation into payloads and checks frame recovery
package sbclink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Sendspin/sbclink-go/pkg/audio/decode"
)

// collect returns a handler that records copies of every frame
func collect(out *[][]byte) FrameHandler {
	return func(frame []byte, info decode.FrameInfo) error {
		*out = append(*out, append([]byte(nil), frame...))
		return nil
	}
}

func TestScanAligned(t *testing.T) {
	frames := toneFrames(t, 3)
	r := NewResync(decode.NewSBC(), 0)

	var got [][]byte
	res, err := r.Scan(join(frames...), collect(&got))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Frames != 3 || res.Repairs != 0 || res.Leftover != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	for i := range frames {
		if !bytes.Equal(got[i], frames[i]) {
			t.Errorf("frame %d differs", i)
		}
	}
}

func TestScanLateMarker(t *testing.T) {
	frames := toneFrames(t, 1)
	want := decodeAll(t, frames[0])

	for k := 1; k <= 6; k++ {
		junk := bytes.Repeat([]byte{0x11}, k)
		window := join(junk, frames[0])

		var got [][]byte
		res, err := NewResync(decode.NewSBC(), 0).Scan(window, collect(&got))
		if err != nil {
			t.Fatalf("k=%d: Scan failed: %v", k, err)
		}
		if res.Repairs != 1 || res.Skipped != k {
			t.Errorf("k=%d: expected one repair of %d bytes, got %+v", k, k, res)
		}
		if res.Frames != 1 {
			t.Fatalf("k=%d: expected 1 frame, got %d", k, res.Frames)
		}
		if !equalSamples(decodeAll(t, got[0]), want) {
			t.Errorf("k=%d: repaired frame decodes differently", k)
		}
		if !bytes.Equal(window[len(frames[0]):], junk) {
			t.Errorf("k=%d: expected skipped bytes behind the frame, got %x", k, window[len(frames[0]):])
		}
	}
}

func TestScanDriftRealignsAllFrames(t *testing.T) {
	frames := toneFrames(t, 4)
	want := decodeAll(t, frames...)

	window := join([]byte{0x01, 0x02, 0x03}, join(frames...))
	var got [][]byte
	res, err := NewResync(decode.NewSBC(), 0).Scan(window, collect(&got))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Frames != 4 {
		t.Fatalf("expected 4 frames, got %d", res.Frames)
	}
	if res.Repairs != 1 || res.Skipped != 3 {
		t.Errorf("expected one rotation to realign every frame, got %+v", res)
	}
	if !equalSamples(decodeAll(t, got...), want) {
		t.Error("drifted payload decodes differently from the aligned stream")
	}
	if res.Leftover != 3 {
		t.Errorf("expected the 3 skipped bytes left over, got %d", res.Leftover)
	}
	if !bytes.Equal(window[len(window)-3:], []byte{0x01, 0x02, 0x03}) {
		t.Errorf("expected skipped bytes parked at the end, got %x", window[len(window)-3:])
	}
}

func TestScanGapBetweenFrames(t *testing.T) {
	frames := toneFrames(t, 2)
	window := join(frames[0], []byte{0x42, 0x43}, frames[1])

	var got [][]byte
	res, err := NewResync(decode.NewSBC(), 0).Scan(window, collect(&got))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Frames != 2 || res.Repairs != 1 {
		t.Errorf("expected 2 frames and 1 repair, got %+v", res)
	}
	if !bytes.Equal(got[1], frames[1]) {
		t.Error("second frame not recovered")
	}
	if res.Leftover != 2 {
		t.Errorf("expected the gap left over, got %d", res.Leftover)
	}
}

func TestScanFixedRepairLength(t *testing.T) {
	frame := toneFrames(t, 1)[0]
	junk := []byte{0x01, 0x02, 0x03}
	window := join(junk, frame)

	var got [][]byte
	res, err := NewResync(decode.NewSBC(), 11).Scan(window, collect(&got))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Repairs != 1 {
		t.Fatalf("expected 1 repair, got %d", res.Repairs)
	}

	want := join(frame[:11], junk, frame[11:])
	if !bytes.Equal(window, want) {
		t.Errorf("expected 11 header bytes moved ahead of the skipped bytes\n got %x\nwant %x", window, want)
	}
}

func TestScanNoSync(t *testing.T) {
	window := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	res, err := NewResync(decode.NewSBC(), 0).Scan(window, func([]byte, decode.FrameInfo) error {
		t.Fatal("handler called without a frame")
		return nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Leftover != len(window) {
		t.Errorf("expected %d leftover bytes, got %d", len(window), res.Leftover)
	}
}

func TestScanShortWindow(t *testing.T) {
	res, err := NewResync(decode.NewSBC(), 0).Scan([]byte{0x9c, 0x73}, collect(new([][]byte)))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Frames != 0 || res.Leftover != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestScanErrors(t *testing.T) {
	frames := toneFrames(t, 2)

	t.Run("bad header", func(t *testing.T) {
		window := join([]byte{0x9c, 0xff, 0xff, 0x00}, frames[0])
		_, err := NewResync(decode.NewSBC(), 0).Scan(window, collect(new([][]byte)))
		if !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("expected ErrMalformedFrame, got %v", err)
		}
	})

	t.Run("truncated frame", func(t *testing.T) {
		window := join(frames[0], frames[1][:20])
		var got [][]byte
		res, err := NewResync(decode.NewSBC(), 0).Scan(window, collect(&got))
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
		if res.Frames != 1 {
			t.Errorf("expected the whole frame before the truncation, got %d", res.Frames)
		}
	})

	t.Run("repair past the end", func(t *testing.T) {
		window := join([]byte{0x01}, frames[0][:30])
		res, err := NewResync(decode.NewSBC(), 0).Scan(window, collect(new([][]byte)))
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if res.Repairs != 0 || res.Leftover != len(window) {
			t.Errorf("expected no rotation and the window left over, got %+v", res)
		}
		if window[0] != 0x01 {
			t.Error("window modified by a rotation that does not fit")
		}
	})

	t.Run("handler failure", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		_, err := NewResync(decode.NewSBC(), 0).Scan(join(frames...), func([]byte, decode.FrameInfo) error {
			calls++
			return boom
		})
		if !errors.Is(err, ErrDecode) || !errors.Is(err, boom) {
			t.Errorf("expected ErrDecode wrapping the handler error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected scanning to stop after the failure, got %d calls", calls)
		}
	})
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name           string
		from, mid, end int
		want           string
		ok             bool
	}{
		{"move tail ahead", 0, 2, 5, "cdeabfg", true},
		{"inner window", 1, 3, 6, "adefbcg", true},
		{"nothing skipped", 2, 2, 4, "abcdefg", true},
		{"end past buffer", 0, 2, 8, "abcdefg", false},
		{"inverted", 3, 2, 4, "abcdefg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte("abcdefg")
			if ok := rotate(buf, tt.from, tt.mid, tt.end); ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if string(buf) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf)
			}
		})
	}
}

// ABOUTME: Tests for the test tone source
// ABOUTME: Checks channel duplication and the optional length limit
package sbclink

import (
	"io"
	"testing"
)

func TestTestToneChannels(t *testing.T) {
	tone := NewTestTone(48000, 2, 0)
	buf := make([]int32, 200)
	n, err := tone.Read(buf)
	if err != nil || n != 200 {
		t.Fatalf("expected 200 samples, got %d (%v)", n, err)
	}
	for i := 0; i < n; i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d: channels differ", i/2)
		}
	}
	if buf[0] != 0 || buf[2] == 0 {
		t.Errorf("expected a sine starting at zero, got %v", buf[:4])
	}
}

func TestTestToneLimit(t *testing.T) {
	tone := NewTestTone(1000, 1, 0.25)
	buf := make([]int32, 100)

	total := 0
	for {
		n, err := tone.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}
	if total != 250 {
		t.Errorf("expected 250 samples, got %d", total)
	}
}

func TestTestToneDefaults(t *testing.T) {
	tone := NewTestTone(0, 0, 0)
	if tone.SampleRate() != 32000 || tone.Channels() != 1 {
		t.Errorf("expected 32kHz mono, got %dHz %dch", tone.SampleRate(), tone.Channels())
	}
}

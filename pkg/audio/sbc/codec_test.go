// ABOUTME: Tests for the SBC encoder and decoder
// ABOUTME: Checks exact frames, error paths and round-trip signal quality per mode
package sbc

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"
)

func TestEncodeSilence(t *testing.T) {
	enc, err := NewEncoder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	frame, err := enc.Encode(make([]int16, enc.CodeSize()))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := mustHex(t, silenceFrameHex)
	if !bytes.Equal(frame, want) {
		t.Errorf("silence frame mismatch\n got %s\nwant %s", hex.EncodeToString(frame), silenceFrameHex)
	}
}

func TestSilenceAllocation(t *testing.T) {
	var sf, bits [2][8]int
	allocateBits(DefaultConfig(), &sf, &bits)

	want := [8]int{3, 3, 2, 2, 2, 2, 2, 2}
	if bits[0] != want {
		t.Errorf("expected %v, got %v", want, bits[0])
	}
}

func TestEncodeSineHeader(t *testing.T) {
	enc, err := NewEncoder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	pcm := make([]int16, enc.CodeSize())
	for n := range pcm {
		pcm[n] = int16(8000 * math.Sin(2*math.Pi*1000*float64(n)/32000))
	}
	frame, err := enc.Encode(pcm)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// header, crc and the eight scale factors
	want := mustHex(t, "9c7312fdc8865655")
	if !bytes.Equal(frame[:8], want) {
		t.Errorf("expected prefix %x, got %x", want, frame[:8])
	}
}

func TestEncodeWrongLength(t *testing.T) {
	enc, err := NewEncoder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	if _, err := enc.Encode(make([]int16, 10)); err == nil {
		t.Error("expected error for short input")
	}
}

func TestNewEncoderInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bitpool = 0
	if _, err := NewEncoder(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDecodeSilence(t *testing.T) {
	dec := NewDecoder()
	frame := mustHex(t, silenceFrameHex)

	pcm, n, err := dec.Decode(append(frame, 0xAA, 0xBB))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != 44 {
		t.Errorf("expected 44 bytes consumed, got %d", n)
	}
	if len(pcm) != 128 {
		t.Fatalf("expected 128 samples, got %d", len(pcm))
	}
	for i, s := range pcm {
		if s != 0 {
			t.Fatalf("sample %d = %d, expected silence", i, s)
		}
	}
	if dec.Config() != DefaultConfig() {
		t.Errorf("expected decoder config %v, got %v", DefaultConfig(), dec.Config())
	}
}

func TestDecodeErrors(t *testing.T) {
	frame := mustHex(t, silenceFrameHex)
	badCRC := append([]byte(nil), frame...)
	badCRC[3] ^= 0xFF
	badSF := append([]byte(nil), frame...)
	badSF[5] = 0x10

	tests := []struct {
		name string
		data []byte
	}{
		{"no sync", frame[1:]},
		{"truncated", frame[:30]},
		{"crc mismatch", badCRC},
		{"scale factor corrupted", badSF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewDecoder().Decode(tt.data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"mono snr", Config{32000, 16, 8, Mono, SNR, 18}},
		{"mono loudness", Config{32000, 16, 8, Mono, Loudness, 18}},
		{"joint stereo", Config{48000, 16, 8, JointStereo, Loudness, 35}},
		{"stereo 4 subbands", Config{44100, 8, 4, Stereo, SNR, 30}},
		{"dual channel", Config{16000, 4, 4, DualChannel, Loudness, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snr, delay := roundTripSNR(t, tt.cfg, 30)
			if snr < 40 {
				t.Errorf("round trip SNR %.1f dB (delay %d), expected at least 40 dB", snr, delay)
			}
		})
	}
}

// roundTripSNR encodes a tone per channel, decodes it and measures the
// first channel against the input at the best matching delay.
func roundTripSNR(t *testing.T, cfg Config, frames int) (float64, int) {
	t.Helper()

	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	dec := NewDecoder()

	nch := cfg.Channels()
	total := frames * cfg.FrameSamples()
	in := make([]int16, total*nch)
	for n := 0; n < total; n++ {
		for ch := 0; ch < nch; ch++ {
			freq := 440 * float64(ch+1)
			in[n*nch+ch] = int16(8000 * math.Sin(2*math.Pi*freq*float64(n)/float64(cfg.SampleRate)))
		}
	}

	var out []int16
	step := enc.CodeSize()
	for i := 0; i < len(in); i += step {
		frame, err := enc.Encode(in[i : i+step])
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(frame) != cfg.FrameLength() {
			t.Fatalf("expected %d byte frame, got %d", cfg.FrameLength(), len(frame))
		}
		pcm, n, err := dec.Decode(frame)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if n != len(frame) {
			t.Fatalf("decoder consumed %d of %d bytes", n, len(frame))
		}
		out = append(out, pcm...)
	}

	maxDelay := 12 * cfg.Subbands
	bestErr, bestDelay := math.Inf(1), 0
	for d := 0; d < maxDelay; d++ {
		var e float64
		for n := total / 2; n < total-maxDelay; n++ {
			diff := float64(in[n*nch]) - float64(out[(n+d)*nch])
			e += diff * diff
		}
		if e < bestErr {
			bestErr, bestDelay = e, d
		}
	}
	var signal float64
	for n := total / 2; n < total-maxDelay; n++ {
		signal += float64(in[n*nch]) * float64(in[n*nch])
	}
	return 10 * math.Log10(signal/math.Max(bestErr, 1e-9)), bestDelay
}

func TestDecoderReset(t *testing.T) {
	enc, _ := NewEncoder(DefaultConfig())
	pcm := make([]int16, enc.CodeSize())
	for n := range pcm {
		pcm[n] = int16(4000 * math.Sin(2*math.Pi*700*float64(n)/32000))
	}
	first, _ := enc.Encode(pcm)
	second, _ := enc.Encode(pcm)

	dec := NewDecoder()
	if _, _, err := dec.Decode(first); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	continued, _, err := dec.Decode(second)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	dec.Reset()
	fresh, _, err := dec.Decode(second)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	other, _, _ := NewDecoder().Decode(second)
	for i := range fresh {
		if fresh[i] != other[i] {
			t.Fatalf("sample %d: reset decoder %d, new decoder %d", i, fresh[i], other[i])
		}
	}

	same := true
	for i := range fresh {
		if fresh[i] != continued[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected filter history to change the output of the second frame")
	}
}

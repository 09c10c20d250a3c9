// ABOUTME: Shared fixtures for sbclink tests
// ABOUTME: Encodes tone frames and records what sinks receive
package sbclink

import (
	"bytes"
	"errors"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/decode"
	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
	"github.com/google/uuid"
)

// toneFrames encodes n consecutive frames of a 1 kHz tone in the default profile
func toneFrames(t *testing.T, n int) [][]byte {
	t.Helper()
	return encodeFrames(t, sbc.DefaultConfig(), n)
}

// encodeFrames encodes n consecutive frames of a 1 kHz tone (mono layouts)
func encodeFrames(t *testing.T, cfg sbc.Config, n int) [][]byte {
	t.Helper()
	enc, err := sbc.NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	pcm := make([]int16, enc.CodeSize())
	frames := make([][]byte, n)
	for i := range frames {
		for j := range pcm {
			idx := i*len(pcm) + j
			pcm[j] = int16(9000 * math.Sin(2*math.Pi*1000*float64(idx)/float64(cfg.SampleRate)))
		}
		frames[i], err = enc.Encode(pcm)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}
	return frames
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// decodeAll decodes frames in order with a fresh decoder
func decodeAll(t *testing.T, frames ...[]byte) []int32 {
	t.Helper()
	dec := decode.NewSBC()
	var out []int32
	for _, f := range frames {
		pcm, _, err := dec.DecodeFrame(f)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		out = append(out, pcm...)
	}
	return out
}

func equalSamples(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recorder is a SinkFactory that keeps every stream in memory
type recorder struct {
	mu      sync.Mutex
	streams []*recordedSink
	openErr error
}

type recordedSink struct {
	id      uuid.UUID
	format  audio.Format
	samples []int32
	closes  int
}

func (r *recorder) open(id uuid.UUID, format audio.Format) (Sink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return nil, r.openErr
	}
	s := &recordedSink{id: id, format: format}
	r.streams = append(r.streams, s)
	return s, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

func (s *recordedSink) Write(samples []int32) error {
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *recordedSink) Close() error {
	s.closes++
	return nil
}

// countingDecoder counts codec resets
type countingDecoder struct {
	*decode.SBCDecoder
	resets int
}

func (d *countingDecoder) Reset() {
	d.resets++
	d.SBCDecoder.Reset()
}

// scriptedRW replays input and records everything written
type scriptedRW struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newScriptedRW(input []byte) *scriptedRW {
	return &scriptedRW{in: bytes.NewReader(input)}
}

func (s *scriptedRW) Read(p []byte) (int, error) {
	n, err := s.in.Read(p)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}

func (s *scriptedRW) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// ABOUTME: Audio source abstraction for the transmit path
// ABOUTME: Provides the AudioSource interface and a test tone generator
package sbclink

import (
	"io"
	"math"
	"sync"
)

// AudioSource provides PCM audio samples for transmission
type AudioSource interface {
	// Read fills samples with interleaved PCM in 24-bit range and returns
	// the number of samples read; io.EOF marks the end of the source
	Read(samples []int32) (int, error)

	// SampleRate returns the sample rate of the audio
	SampleRate() int

	// Channels returns the number of channels
	Channels() int

	// Close closes the audio source
	Close() error
}

// TestToneSource generates a sine tone
type TestToneSource struct {
	mu          sync.Mutex
	sampleIndex uint64
	limit       uint64 // frames; zero means endless
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTestTone creates a 440Hz tone generator. A positive seconds value
// ends the tone with io.EOF after that much audio.
func NewTestTone(sampleRate, channels int, seconds float64) *TestToneSource {
	if sampleRate == 0 {
		sampleRate = 32000
	}
	if channels == 0 {
		channels = 1
	}
	var limit uint64
	if seconds > 0 {
		limit = uint64(seconds * float64(sampleRate))
	}
	return &TestToneSource{
		frequency:  440.0,
		sampleRate: sampleRate,
		channels:   channels,
		limit:      limit,
	}
}

// SetFrequency changes the tone frequency
func (s *TestToneSource) SetFrequency(hz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequency = hz
}

func (s *TestToneSource) Read(samples []int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(samples) / s.channels
	if s.limit > 0 {
		left := s.limit - s.sampleIndex
		if left == 0 {
			return 0, io.EOF
		}
		frames = int(min(uint64(frames), left))
	}

	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		// half scale to leave headroom
		v := int32(math.Sin(2*math.Pi*s.frequency*t) * 8388607 * 0.5)
		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = v
		}
	}
	s.sampleIndex += uint64(frames)

	return frames * s.channels, nil
}

func (s *TestToneSource) SampleRate() int { return s.sampleRate }
func (s *TestToneSource) Channels() int   { return s.channels }
func (s *TestToneSource) Close() error    { return nil }

// ABOUTME: Format converter combining channel remixing and resampling
// ABOUTME: Turns source PCM into the layout an encoder expects
package resample

import "github.com/Sendspin/sbclink-go/pkg/audio"

// Converter maps interleaved samples from one format to another
type Converter struct {
	from, to  audio.Format
	resampler *Resampler
	mixed     []int32
}

// NewConverter creates a converter; only rate and channel count matter
func NewConverter(from, to audio.Format) *Converter {
	return &Converter{
		from:      from,
		to:        to,
		resampler: New(from.SampleRate, to.SampleRate, to.Channels),
	}
}

// Passthrough reports whether the formats already match
func (c *Converter) Passthrough() bool {
	return c.from.SampleRate == c.to.SampleRate && c.from.Channels == c.to.Channels
}

// Process appends the converted samples to dst
func (c *Converter) Process(dst, src []int32) []int32 {
	c.mixed = Remix(c.mixed[:0], src, c.from.Channels, c.to.Channels)
	return c.resampler.Process(dst, c.mixed)
}

// Reset drops resampler state
func (c *Converter) Reset() {
	c.resampler.Reset()
}

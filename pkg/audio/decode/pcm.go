// ABOUTME: PCM audio decoder
// ABOUTME: Decodes little-endian 8/16/24/32-bit PCM byte streams to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/sbclink-go/pkg/audio"
)

// PCMDecoder decodes PCM audio. Bytes of a sample split across two Decode
// calls are carried over, so arbitrary read sizes can be fed in.
type PCMDecoder struct {
	bitDepth int
	pending  []byte
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	switch format.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to int32 samples in 24-bit range
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	width := d.bitDepth / 8
	if len(d.pending) > 0 {
		data = append(d.pending, data...)
		d.pending = nil
	}

	numSamples := len(data) / width
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		b := data[i*width : (i+1)*width]
		switch d.bitDepth {
		case 8:
			// 8-bit WAV data is unsigned
			samples[i] = (int32(b[0]) - 128) << 16
		case 16:
			samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			samples[i] = audio.SampleFrom24Bit([3]byte{b[0], b[1], b[2]})
		case 32:
			samples[i] = int32(binary.LittleEndian.Uint32(b)) >> 8
		}
	}

	if rest := data[numSamples*width:]; len(rest) > 0 {
		d.pending = append([]byte(nil), rest...)
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	d.pending = nil
	return nil
}

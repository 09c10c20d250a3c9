// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to little-endian 16, 24 or 32-bit PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/sbclink-go/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	switch format.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// BytesPerSample returns the encoded width of one sample
func (e *PCMEncoder) BytesPerSample() int {
	return e.bitDepth / 8
}

// Encode converts int32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	width := e.BytesPerSample()
	output := make([]byte, len(samples)*width)
	for i, sample := range samples {
		b := output[i*width:]
		switch e.bitDepth {
		case 16:
			binary.LittleEndian.PutUint16(b, uint16(audio.SampleToInt16(sample)))
		case 24:
			packed := audio.SampleTo24Bit(sample)
			copy(b, packed[:])
		case 32:
			binary.LittleEndian.PutUint32(b, uint32(sample<<8))
		}
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

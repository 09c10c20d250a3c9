// ABOUTME: WAV header layout
// ABOUTME: Canonical 44-byte RIFF/WAVE header with a single fmt and data chunk
package wav

import (
	"errors"
	"fmt"

	"github.com/Sendspin/sbclink-go/pkg/audio"
)

// HeaderSize is the size of the canonical header the Writer emits
const HeaderSize = 44

const formatPCM = 1

// ErrInvalid reports data that is not a PCM WAV stream this package handles
var ErrInvalid = errors.New("wav: invalid file")

// Header represents the header structure of a WAV file
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // data bytes
}

func newHeader(format audio.Format, dataSize uint32) Header {
	blockAlign := uint16(format.Channels * format.BitDepth / 8)
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     HeaderSize - 8 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.SampleRate) * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: uint16(format.BitDepth),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

func validateFormat(format audio.Format) error {
	if format.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalid, format.SampleRate)
	}
	if format.Channels <= 0 || format.Channels > 8 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalid, format.Channels)
	}
	switch format.BitDepth {
	case 16, 24:
		return nil
	default:
		return fmt.Errorf("%w: unsupported bit depth %d (supported: 16, 24)", ErrInvalid, format.BitDepth)
	}
}

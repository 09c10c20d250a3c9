// ABOUTME: Decoder interface definitions
// ABOUTME: Common interfaces for block decoders and self-delimiting frame decoders
package decode

import (
	"errors"

	"github.com/Sendspin/sbclink-go/pkg/audio"
)

var (
	// ErrInvalidFrame reports bytes that do not start with a usable frame header
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrDecode reports a frame that was located but failed to decode
	ErrDecode = errors.New("decode error")
)

// Decoder decodes audio in various formats to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// FrameInfo describes one probed frame
type FrameInfo struct {
	Format  audio.Format
	Size    int // encoded bytes
	Samples int // samples per channel
}

// FrameDecoder decodes codecs whose frames begin with a sync word and carry
// their own length, so frames can be found inside an arbitrary byte window.
// Decoding is stateful: frames of one stream must be decoded in order and
// Reset must be called before an unrelated stream.
type FrameDecoder interface {
	Decoder

	// SyncWord is the first byte of every frame
	SyncWord() byte

	// HeaderSize is the number of bytes Probe needs
	HeaderSize() int

	// Probe inspects the header at the start of data
	Probe(data []byte) (FrameInfo, error)

	// DecodeFrame decodes the frame at the start of data and reports the
	// bytes it occupied
	DecodeFrame(data []byte) ([]int32, int, error)

	// Reset clears inter-frame state
	Reset()
}

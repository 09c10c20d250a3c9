// ABOUTME: Streaming WAV writer
// ABOUTME: Appends PCM samples and patches the header sizes on close
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/encode"
)

// Writer streams interleaved samples into a WAV file
type Writer struct {
	w       io.WriteSeeker
	closer  io.Closer
	format  audio.Format
	enc     *encode.PCMEncoder
	data    uint32
	samples int64
	closed  bool
}

// NewWriter writes a provisional header to w. Samples are in the 24-bit
// range and are stored at format.BitDepth (16 or 24).
func NewWriter(w io.WriteSeeker, format audio.Format) (*Writer, error) {
	if err := validateFormat(format); err != nil {
		return nil, err
	}
	pcm := format
	pcm.Codec = "pcm"
	enc, err := encode.NewPCM(pcm)
	if err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, newHeader(format, 0)); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return &Writer{w: w, format: format, enc: enc}, nil
}

// Create creates path and returns a Writer that closes the file on Close
func Create(path string, format audio.Format) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, format)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Format returns the stored format
func (w *Writer) Format() audio.Format {
	return w.format
}

// Samples returns the number of interleaved samples written
func (w *Writer) Samples() int64 {
	return w.samples
}

// Write appends interleaved samples
func (w *Writer) Write(samples []int32) error {
	if w.closed {
		return fmt.Errorf("wav: write after close")
	}
	buf, err := w.enc.Encode(samples)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	w.data += uint32(len(buf))
	w.samples += int64(len(samples))
	return nil
}

// Close rewrites the header with the final sizes
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.patchHeader()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *Writer) patchHeader() error {
	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind for WAV header: %w", err)
	}
	if err := binary.Write(w.w, binary.LittleEndian, newHeader(w.format, w.data)); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	return nil
}

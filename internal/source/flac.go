// ABOUTME: FLAC file source
// ABOUTME: Decodes frames with mewkiz/flac and scales samples to 24 bits
package source

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	loop       bool
	sampleRate int
	channels   int
	bitDepth   int
	pending    []int32 // decoded samples not yet returned
}

// NewFLACSource opens a FLAC file
func NewFLACSource(path string, loop bool) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title(path), info.SampleRate, info.NChannels, info.BitsPerSample)

	return &FLACSource{
		file:       f,
		stream:     stream,
		loop:       loop,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
	}, nil
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	for len(s.pending) == 0 {
		if err := s.decodeFrame(); err != nil {
			return 0, err
		}
	}

	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// decodeFrame interleaves the next frame into pending
func (s *FLACSource) decodeFrame() error {
	frame, err := s.stream.ParseNext()
	if err == io.EOF {
		if !s.loop {
			return io.EOF
		}
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to start: %w", err)
		}
		stream, err := flac.New(s.file)
		if err != nil {
			return fmt.Errorf("failed to create new stream: %w", err)
		}
		s.stream = stream
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to decode FLAC frame: %w", err)
	}

	blockSize := int(frame.BlockSize)
	out := s.pending[:0]
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < s.channels; ch++ {
			out = append(out, scaleTo24(frame.Subframes[ch].Samples[i], s.bitDepth))
		}
	}
	s.pending = out
	return nil
}

// scaleTo24 moves a sample of the given bit depth into the 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	if bitDepth > 24 {
		return sample >> (bitDepth - 24)
	}
	return sample << (24 - bitDepth)
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Close() error    { return s.file.Close() }

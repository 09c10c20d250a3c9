// ABOUTME: WAV file source
// ABOUTME: Streams 16 and 24-bit PCM through the wav package reader
package source

import (
	"fmt"
	"io"
	"log"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/wav"
)

// WAVSource reads a WAV file
type WAVSource struct {
	path   string
	loop   bool
	reader *wav.Reader
	format audio.Format
}

// NewWAVSource opens a WAV file
func NewWAVSource(path string, loop bool) (*WAVSource, error) {
	r, err := wav.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	log.Printf("Loaded WAV: %s (%v)", title(path), r.Format())
	return &WAVSource{path: path, loop: loop, reader: r, format: r.Format()}, nil
}

func (s *WAVSource) Read(samples []int32) (int, error) {
	n, err := s.reader.Read(samples)
	if err != io.EOF || !s.loop {
		return n, err
	}

	s.reader.Close()
	r, err := wav.Open(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen WAV file: %w", err)
	}
	s.reader = r
	return s.reader.Read(samples)
}

func (s *WAVSource) SampleRate() int { return s.format.SampleRate }
func (s *WAVSource) Channels() int   { return s.format.Channels }
func (s *WAVSource) Close() error    { return s.reader.Close() }

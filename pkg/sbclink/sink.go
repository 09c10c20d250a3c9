// ABOUTME: Sinks for decoded streams
// ABOUTME: Numbered WAV files, speaker output, fan-out and a discarding sink
package sbclink

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/output"
	"github.com/Sendspin/sbclink-go/pkg/audio/wav"
	"github.com/google/uuid"
)

// Sink receives the decoded samples of one stream
type Sink interface {
	// Write appends interleaved samples in 24-bit range
	Write(samples []int32) error

	// Close finalizes the stream
	Close() error
}

// SinkFactory opens a sink for a new stream
type SinkFactory func(id uuid.UUID, format audio.Format) (Sink, error)

type discardSink struct{}

func (discardSink) Write([]int32) error { return nil }
func (discardSink) Close() error        { return nil }

// Discard is a SinkFactory whose sinks drop every sample
func Discard(uuid.UUID, audio.Format) (Sink, error) {
	return discardSink{}, nil
}

// WAVSinks writes each stream to the next numbered file (1.wav, 2.wav, ...)
// in dir, continuing after the highest number already present
func WAVSinks(dir string) (SinkFactory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	next := highestNumbered(dir) + 1

	var mu sync.Mutex
	return func(id uuid.UUID, format audio.Format) (Sink, error) {
		mu.Lock()
		n := next
		next++
		mu.Unlock()

		format.Codec = "pcm"
		if format.BitDepth == 0 {
			format.BitDepth = 16
		}
		path := filepath.Join(dir, fmt.Sprintf("%d.wav", n))
		w, err := wav.Create(path, format)
		if err != nil {
			return nil, err
		}
		log.Printf("Stream %s: writing %s", id, path)
		return w, nil
	}, nil
}

func highestNumbered(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	high := 0
	for _, e := range entries {
		var n int
		if _, err := fmt.Sscanf(e.Name(), "%d.wav", &n); err == nil && n > high {
			high = n
		}
	}
	return high
}

// OutputSinks plays every stream on out. The device stays open between
// streams; the caller owns out and closes it.
func OutputSinks(out output.Output) SinkFactory {
	return func(id uuid.UUID, format audio.Format) (Sink, error) {
		if err := out.Open(format); err != nil {
			return nil, fmt.Errorf("failed to open output: %w", err)
		}
		return outputSink{out}, nil
	}
}

type outputSink struct {
	out output.Output
}

func (s outputSink) Write(samples []int32) error { return s.out.Write(samples) }
func (s outputSink) Close() error                { return nil }

// MultiSink opens one sink per factory and fans samples out to all of them
func MultiSink(factories ...SinkFactory) SinkFactory {
	return func(id uuid.UUID, format audio.Format) (Sink, error) {
		var sinks multiSink
		for _, open := range factories {
			s, err := open(id, format)
			if err != nil {
				sinks.Close()
				return nil, err
			}
			sinks = append(sinks, s)
		}
		return sinks, nil
	}
}

type multiSink []Sink

func (m multiSink) Write(samples []int32) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(samples); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

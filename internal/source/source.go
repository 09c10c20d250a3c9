// ABOUTME: Source selection from a path, URL or device name
// ABOUTME: Dispatches on scheme and file extension
package source

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sendspin/sbclink-go/pkg/sbclink"
)

// Mic selects the default capture device
const Mic = "mic"

// ErrUnsupportedFormat reports a file type with no decoder
var ErrUnsupportedFormat = errors.New("source: unsupported audio format")

// Options tune how a source is opened
type Options struct {
	// Loop restarts files at the end instead of returning io.EOF
	Loop bool

	// ToneSeconds limits the test tone (0: endless)
	ToneSeconds float64

	// SampleRate and Channels are used by the test tone and the microphone
	// (defaults: 32000 Hz mono)
	SampleRate int
	Channels   int
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = 32000
	}
	if o.Channels <= 0 {
		o.Channels = 1
	}
	return o
}

// Open creates a source. An empty name is a test tone, "mic" captures from
// the default input device, http(s) URLs stream MP3, anything else is a file
// chosen by extension.
func Open(name string, opts Options) (sbclink.AudioSource, error) {
	opts = opts.withDefaults()

	switch {
	case name == "":
		log.Printf("Using %dHz test tone", opts.SampleRate)
		return sbclink.NewTestTone(opts.SampleRate, opts.Channels, opts.ToneSeconds), nil
	case name == Mic:
		return NewMicSource(opts.SampleRate, opts.Channels)
	case strings.HasPrefix(name, "http://"), strings.HasPrefix(name, "https://"):
		return NewHTTPMP3Source(name)
	}

	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".wav":
		return NewWAVSource(name, opts.Loop)
	case ".mp3":
		return NewMP3Source(name, opts.Loop)
	case ".flac":
		return NewFLACSource(name, opts.Loop)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .wav, .mp3, .flac)", ErrUnsupportedFormat, ext)
	}
}

// title returns the file name without its extension
func title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

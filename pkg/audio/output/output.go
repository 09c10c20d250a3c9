// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for speaker backends and backend selection by name
package output

import (
	"errors"
	"fmt"

	"github.com/Sendspin/sbclink-go/pkg/audio"
)

// ErrNotOpen is returned by Write before a successful Open
var ErrNotOpen = errors.New("output not initialized")

// Output represents an audio output device
type Output interface {
	// Open initializes the output device for PCM in the given format
	Open(format audio.Format) error

	// Write outputs audio samples (24-bit range, interleaved)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// Backends lists the names New accepts
var Backends = []string{"oto", "malgo"}

// New creates an output by backend name
func New(backend string) (Output, error) {
	switch backend {
	case "oto":
		return NewOto(), nil
	case "malgo", "":
		return NewMalgo(), nil
	default:
		return nil, fmt.Errorf("unknown output backend %q (supported: %v)", backend, Backends)
	}
}

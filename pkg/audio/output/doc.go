// ABOUTME: Audio output package for playing decoded streams
// ABOUTME: Provides the Output interface with oto and malgo backends
// Package output plays decoded PCM on the local speaker.
//
// Two backends are available: oto (16-bit only, one device format per
// process) and malgo (16, 24 or 32-bit, reopened on format changes).
//
// Example:
//
//	out, err := output.New("malgo")
//	err = out.Open(audio.Format{SampleRate: 32000, Channels: 1, BitDepth: 16})
//	err = out.Write(samples)
package output

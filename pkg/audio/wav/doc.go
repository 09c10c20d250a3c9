// ABOUTME: WAV container package
// ABOUTME: Streams PCM into and out of RIFF/WAVE files
// Package wav writes and reads uncompressed PCM WAV files.
//
// The Writer streams samples as they arrive and patches the RIFF and data
// sizes when closed, so it needs an io.WriteSeeker. The Reader walks the
// chunk list and streams samples from the data chunk.
package wav

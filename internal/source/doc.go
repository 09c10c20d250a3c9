// ABOUTME: Package source provides PCM sources for the transmitter
// ABOUTME: Reads WAV, MP3 and FLAC files, HTTP MP3 streams and the microphone
// Package source opens the audio the transmitter encodes. Every source
// yields interleaved samples in the 24-bit range at its native rate and
// channel count; the transmitter converts them to the codec profile.
// Finite sources return io.EOF at the end unless opened with Loop set.
package source

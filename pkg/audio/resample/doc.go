// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts sample rates and channel layouts for the encoder
// Package resample converts PCM between sample rates and channel counts.
//
// The Resampler is streaming: it keeps one frame of history so that chunks
// fed one after another produce the same output as a single large chunk.
//
// Example:
//
//	c := resample.NewConverter(srcFormat, encoderFormat)
//	out = c.Process(out[:0], chunk)
package resample

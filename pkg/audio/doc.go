// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the audio types shared by the codec, sink and
// source packages.
//
// Samples travel through the library as int32 values in 24-bit range so
// 16-bit codecs such as SBC and hi-res sources share one representation:
//   - Format: codec, sample rate, channels and bit depth of a stream
//   - Buffer: interleaved PCM together with its format
//
// Conversion helpers cover 16-bit ↔ 24-bit values and packed 24-bit bytes.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "sbc",
//	    SampleRate: 32000,
//	    Channels:   1,
//	    BitDepth:   16,
//	}
//
//	samples := audio.FromInt16(nil, pcm16)
package audio

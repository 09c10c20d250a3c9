// ABOUTME: Audio decoder package
// ABOUTME: Provides Decoder and FrameDecoder interfaces with PCM and SBC implementations
// Package decode provides audio decoders.
//
// Supports: PCM (8, 16, 24 and 32-bit) and SBC.
//
// All decoders output int32 samples in 24-bit range. SBC implements
// FrameDecoder, which adds probing and single-frame decoding for callers
// that must locate frames inside an unaligned byte window.
//
// Example:
//
//	decoder := decode.NewSBC()
//	info, err := decoder.Probe(window)
//	samples, n, err := decoder.DecodeFrame(window)
package decode

// ABOUTME: Audio encoder package for encoding PCM to wire formats
// ABOUTME: Provides Encoder interfaces and implementations for PCM and SBC
// Package encode provides audio encoders.
//
// Supports: PCM (16, 24 and 32-bit) and SBC.
//
// All encoders accept int32 samples in 24-bit range. Frame encoders such
// as SBC buffer samples until a whole frame is available.
//
// Example:
//
//	encoder, err := encode.NewSBC(sbc.DefaultConfig())
//	frames, err := encoder.EncodeFrames(samples)
package encode

// ABOUTME: Pure Go SBC (low complexity subband codec) package
// ABOUTME: Frame header parsing, CRC, bit allocation, encoder and decoder
// Package sbc implements the Bluetooth A2DP low complexity subband codec.
//
// Every SBC frame starts with the sync word 0x9C followed by a three byte
// header that fully describes the frame, so a frame can be located and
// sized without any out-of-band information:
//
//	cfg, err := sbc.ParseHeader(data)
//	n := cfg.FrameLength()
//
// The Encoder and Decoder keep polyphase filter state across frames and
// must be Reset between independent streams.
//
// Example:
//
//	enc, err := sbc.NewEncoder(sbc.DefaultConfig())
//	frame, err := enc.Encode(pcm[:enc.CodeSize()])
//
//	dec := sbc.NewDecoder()
//	samples, consumed, err := dec.Decode(frame)
package sbc

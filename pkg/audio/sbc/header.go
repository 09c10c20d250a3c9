// ABOUTME: SBC frame header layout and configuration
// ABOUTME: Parses, validates and sizes frames from their four byte header
package sbc

import (
	"errors"
	"fmt"
	"time"
)

const (
	// SyncWord is the first byte of every SBC frame
	SyncWord byte = 0x9C

	// HeaderSize is the fixed part of a frame: sync, config, bitpool, crc
	HeaderSize = 4

	// MaxBitpool is the largest bitpool a frame header can carry
	MaxBitpool = 250
)

var (
	// ErrInvalidFrame reports a header that cannot describe an SBC frame
	ErrInvalidFrame = errors.New("sbc: invalid frame")

	// ErrDecode reports a frame that was located but could not be decoded
	ErrDecode = errors.New("sbc: decode failed")

	// ErrInvalidConfig reports unusable encoder parameters
	ErrInvalidConfig = errors.New("sbc: invalid configuration")
)

// Mode is the channel mode of a frame
type Mode uint8

const (
	Mono Mode = iota
	DualChannel
	Stereo
	JointStereo
)

func (m Mode) String() string {
	switch m {
	case Mono:
		return "mono"
	case DualChannel:
		return "dual"
	case Stereo:
		return "stereo"
	case JointStereo:
		return "joint"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Allocation selects the bit allocation method
type Allocation uint8

const (
	Loudness Allocation = iota
	SNR
)

func (a Allocation) String() string {
	if a == SNR {
		return "snr"
	}
	return "loudness"
}

var sampleRates = [4]int{16000, 32000, 44100, 48000}

// Config describes the layout shared by every frame of a stream
type Config struct {
	SampleRate int
	Blocks     int
	Subbands   int
	Mode       Mode
	Allocation Allocation
	Bitpool    int
}

// DefaultConfig returns the profile used for radio audio links:
// 32kHz mono, 16 blocks, 8 subbands, SNR allocation, bitpool 18.
func DefaultConfig() Config {
	return Config{
		SampleRate: 32000,
		Blocks:     16,
		Subbands:   8,
		Mode:       Mono,
		Allocation: SNR,
		Bitpool:    18,
	}
}

// Channels returns the number of audio channels carried by a frame
func (c Config) Channels() int {
	if c.Mode == Mono {
		return 1
	}
	return 2
}

// FrameSamples returns the number of samples per channel in one frame
func (c Config) FrameSamples() int {
	return c.Blocks * c.Subbands
}

// FrameDuration returns the playback time of one frame
func (c Config) FrameDuration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.FrameSamples()) * time.Second / time.Duration(c.SampleRate)
}

// FrameLength returns the encoded size of one frame in bytes
func (c Config) FrameLength() int {
	nch := c.Channels()
	n := HeaderSize + (4*c.Subbands*nch)/8
	switch c.Mode {
	case Mono, DualChannel:
		n += (c.Blocks*nch*c.Bitpool + 7) / 8
	default:
		join := 0
		if c.Mode == JointStereo {
			join = c.Subbands
		}
		n += (join + c.Blocks*c.Bitpool + 7) / 8
	}
	return n
}

// Bitrate returns the stream bitrate in bits per second
func (c Config) Bitrate() int {
	if c.FrameSamples() == 0 {
		return 0
	}
	return 8 * c.FrameLength() * c.SampleRate / c.FrameSamples()
}

func (c Config) String() string {
	return fmt.Sprintf("%dHz %s blocks=%d subbands=%d %s bitpool=%d",
		c.SampleRate, c.Mode, c.Blocks, c.Subbands, c.Allocation, c.Bitpool)
}

// Validate checks that the configuration can be expressed in a frame header
func (c Config) Validate() error {
	if freqCode(c.SampleRate) < 0 {
		return fmt.Errorf("%w: unsupported sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	switch c.Blocks {
	case 4, 8, 12, 16:
	default:
		return fmt.Errorf("%w: unsupported block count %d", ErrInvalidConfig, c.Blocks)
	}
	if c.Subbands != 4 && c.Subbands != 8 {
		return fmt.Errorf("%w: unsupported subband count %d", ErrInvalidConfig, c.Subbands)
	}
	if c.Mode > JointStereo {
		return fmt.Errorf("%w: unsupported mode %d", ErrInvalidConfig, c.Mode)
	}
	if c.Allocation > SNR {
		return fmt.Errorf("%w: unsupported allocation %d", ErrInvalidConfig, c.Allocation)
	}
	if c.Bitpool < 2 || c.Bitpool > c.maxBitpool() {
		return fmt.Errorf("%w: bitpool %d outside [2, %d]", ErrInvalidConfig, c.Bitpool, c.maxBitpool())
	}
	return nil
}

func (c Config) maxBitpool() int {
	limit := 16 * c.Subbands
	if c.Mode == Stereo || c.Mode == JointStereo {
		limit = 32 * c.Subbands
	}
	if limit > MaxBitpool {
		limit = MaxBitpool
	}
	return limit
}

// scaleFactorBits is the number of bits after the fixed header that the
// CRC covers: join flags (joint stereo only) and the 4-bit scale factors.
func (c Config) scaleFactorBits() int {
	n := 4 * c.Subbands * c.Channels()
	if c.Mode == JointStereo {
		n += c.Subbands
	}
	return n
}

func freqCode(rate int) int {
	for i, r := range sampleRates {
		if r == rate {
			return i
		}
	}
	return -1
}

// headerByte packs everything but the bitpool into the second header byte
func (c Config) headerByte() byte {
	b := byte(freqCode(c.SampleRate)) << 6
	b |= byte(c.Blocks/4-1) << 4
	b |= byte(c.Mode) << 2
	b |= byte(c.Allocation) << 1
	b |= byte(c.Subbands/4 - 1)
	return b
}

// ParseHeader decodes the frame header at the start of data. Only the
// first HeaderSize bytes are inspected.
func ParseHeader(data []byte) (Config, error) {
	if len(data) < HeaderSize {
		return Config{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidFrame, len(data), HeaderSize)
	}
	if data[0] != SyncWord {
		return Config{}, fmt.Errorf("%w: sync word 0x%02x", ErrInvalidFrame, data[0])
	}

	b := data[1]
	cfg := Config{
		SampleRate: sampleRates[b>>6],
		Blocks:     int((b>>4)&0x03+1) * 4,
		Mode:       Mode((b >> 2) & 0x03),
		Allocation: Allocation((b >> 1) & 0x01),
		Subbands:   int(b&0x01+1) * 4,
		Bitpool:    int(data[2]),
	}
	if cfg.Bitpool < 2 || cfg.Bitpool > cfg.maxBitpool() {
		return Config{}, fmt.Errorf("%w: bitpool %d for %s", ErrInvalidFrame, cfg.Bitpool, cfg.Mode)
	}
	return cfg, nil
}

// frameCRC computes the header checksum of a complete frame
func frameCRC(frame []byte, cfg Config) byte {
	crc := byte(0x0F)
	crc = crcBits(crc, frame[1:3], 16)
	crc = crcBits(crc, frame[HeaderSize:], cfg.scaleFactorBits())
	return crc
}

// crcBits feeds the first n bits of data, MSB first, through the
// CRC-8 polynomial x^8 + x^4 + x^3 + x^2 + 1.
func crcBits(crc byte, data []byte, n int) byte {
	for i := 0; i < n; i++ {
		bit := (data[i>>3] >> (7 - uint(i&7))) & 1
		feedback := (crc >> 7) ^ bit
		crc <<= 1
		if feedback != 0 {
			crc ^= 0x1D
		}
	}
	return crc
}

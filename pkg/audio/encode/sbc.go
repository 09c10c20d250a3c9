// ABOUTME: SBC frame encoder adapter
// ABOUTME: Buffers int32 samples into whole SBC frames for the sbc package
package encode

import (
	"bytes"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
)

// SBCEncoder encodes interleaved int32 samples into SBC frames
type SBCEncoder struct {
	enc     *sbc.Encoder
	pending []int16
}

// NewSBC creates an SBC encoder for the given frame layout
func NewSBC(cfg sbc.Config) (*SBCEncoder, error) {
	enc, err := sbc.NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return &SBCEncoder{
		enc:     enc,
		pending: make([]int16, 0, enc.CodeSize()),
	}, nil
}

// Config returns the frame layout
func (e *SBCEncoder) Config() sbc.Config {
	return e.enc.Config()
}

// Format describes the PCM the encoder expects
func (e *SBCEncoder) Format() audio.Format {
	cfg := e.enc.Config()
	return audio.Format{
		Codec:      "sbc",
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels(),
		BitDepth:   16,
	}
}

// EncodeFrames encodes as many whole frames as the buffered samples allow
func (e *SBCEncoder) EncodeFrames(samples []int32) ([][]byte, error) {
	var frames [][]byte
	size := e.enc.CodeSize()
	for _, s := range samples {
		e.pending = append(e.pending, audio.SampleToInt16(s))
		if len(e.pending) < size {
			continue
		}
		frame, err := e.enc.Encode(e.pending)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
		e.pending = e.pending[:0]
	}
	return frames, nil
}

// Encode encodes whole frames and returns them concatenated
func (e *SBCEncoder) Encode(samples []int32) ([]byte, error) {
	frames, err := e.EncodeFrames(samples)
	return bytes.Join(frames, nil), err
}

// Flush pads the held samples with silence into one last frame
func (e *SBCEncoder) Flush() ([]byte, error) {
	if len(e.pending) == 0 {
		return nil, nil
	}
	for len(e.pending) < e.enc.CodeSize() {
		e.pending = append(e.pending, 0)
	}
	frame, err := e.enc.Encode(e.pending)
	e.pending = e.pending[:0]
	return frame, err
}

// Reset drops held samples and filter history
func (e *SBCEncoder) Reset() {
	e.pending = e.pending[:0]
	e.enc.Reset()
}

// Close releases resources
func (e *SBCEncoder) Close() error {
	return nil
}

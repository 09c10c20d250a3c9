// ABOUTME: SBC frame decoder adapter
// ABOUTME: Exposes the sbc package through the FrameDecoder interface
package decode

import (
	"fmt"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/sbc"
)

// SBCDecoder decodes SBC frames to int32 samples in 24-bit range
type SBCDecoder struct {
	dec *sbc.Decoder
	pcm []int32
}

// NewSBC creates an SBC frame decoder
func NewSBC() *SBCDecoder {
	return &SBCDecoder{dec: sbc.NewDecoder()}
}

// SyncWord returns the SBC sync byte
func (d *SBCDecoder) SyncWord() byte { return sbc.SyncWord }

// HeaderSize returns the SBC fixed header size
func (d *SBCDecoder) HeaderSize() int { return sbc.HeaderSize }

// Probe inspects the frame header at the start of data
func (d *SBCDecoder) Probe(data []byte) (FrameInfo, error) {
	cfg, err := d.dec.Probe(data)
	if err != nil {
		return FrameInfo{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return frameInfo(cfg), nil
}

// DecodeFrame decodes one frame from the start of data
func (d *SBCDecoder) DecodeFrame(data []byte) ([]int32, int, error) {
	pcm, n, err := d.dec.Decode(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return audio.FromInt16(nil, pcm), n, nil
}

// Decode decodes every whole frame in data
func (d *SBCDecoder) Decode(data []byte) ([]int32, error) {
	d.pcm = d.pcm[:0]
	for len(data) >= sbc.HeaderSize {
		samples, n, err := d.DecodeFrame(data)
		if err != nil {
			return d.pcm, err
		}
		d.pcm = append(d.pcm, samples...)
		data = data[n:]
	}
	out := make([]int32, len(d.pcm))
	copy(out, d.pcm)
	return out, nil
}

// Reset clears synthesis filter history
func (d *SBCDecoder) Reset() {
	d.dec.Reset()
}

// Close releases resources
func (d *SBCDecoder) Close() error {
	return nil
}

func frameInfo(cfg sbc.Config) FrameInfo {
	return FrameInfo{
		Format: audio.Format{
			Codec:      "sbc",
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels(),
			BitDepth:   16,
		},
		Size:    cfg.FrameLength(),
		Samples: cfg.FrameSamples(),
	}
}

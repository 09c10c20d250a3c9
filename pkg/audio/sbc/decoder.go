// ABOUTME: SBC frame decoder
// ABOUTME: Verifies, dequantizes and synthesizes one frame at a time into 16-bit PCM
package sbc

import (
	"fmt"
	"math"
)

// Decoder turns SBC frames into interleaved 16-bit PCM. Synthesis state
// carries across frames, so frames of one stream must be decoded in order.
type Decoder struct {
	cfg   Config
	synth [2]*synthesis
}

// NewDecoder creates a decoder with empty filter state
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset discards filter history before an unrelated stream
func (d *Decoder) Reset() {
	d.cfg = Config{}
	d.synth = [2]*synthesis{}
}

// Config returns the layout of the most recently decoded frame
func (d *Decoder) Config() Config {
	return d.cfg
}

// Probe parses the header at the start of data without touching decoder state
func (d *Decoder) Probe(data []byte) (Config, error) {
	return ParseHeader(data)
}

// Decode decodes the frame at the start of data. It returns interleaved
// samples and the number of bytes the frame occupied.
func (d *Decoder) Decode(data []byte) ([]int16, int, error) {
	cfg, err := ParseHeader(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	size := cfg.FrameLength()
	if len(data) < size {
		return nil, 0, fmt.Errorf("%w: truncated frame (%d of %d bytes)", ErrDecode, len(data), size)
	}
	frame := data[:size]
	d.prepare(cfg)

	nch := cfg.Channels()
	nsb := cfg.Subbands
	r := bitReader{data: frame, pos: HeaderSize * 8}

	var join [8]bool
	if cfg.Mode == JointStereo {
		for sb := 0; sb < nsb; sb++ {
			join[sb] = r.read(1) == 1
		}
	}
	var sf [2][8]int
	for ch := 0; ch < nch; ch++ {
		for sb := 0; sb < nsb; sb++ {
			sf[ch][sb] = int(r.read(4))
		}
	}
	if crc := frameCRC(frame, cfg); crc != frame[3] {
		return nil, 0, fmt.Errorf("%w: crc 0x%02x, header says 0x%02x", ErrDecode, crc, frame[3])
	}

	var bits [2][8]int
	allocateBits(cfg, &sf, &bits)

	pcm := make([]int16, cfg.FrameSamples()*nch)
	var sub [2][8]float64
	var out [8]float64
	for blk := 0; blk < cfg.Blocks; blk++ {
		for ch := 0; ch < nch; ch++ {
			for sb := 0; sb < nsb; sb++ {
				n := bits[ch][sb]
				if n == 0 {
					sub[ch][sb] = 0
					continue
				}
				q := float64(r.read(n))
				levels := float64(uint32(1)<<uint(n) - 1)
				scale := float64(int(1) << uint(sf[ch][sb]+1))
				sub[ch][sb] = scale * ((2*q+1)/levels - 1)
			}
		}
		if cfg.Mode == JointStereo {
			for sb := 0; sb < nsb; sb++ {
				if join[sb] {
					mid, side := sub[0][sb], sub[1][sb]
					sub[0][sb] = mid + side
					sub[1][sb] = mid - side
				}
			}
		}
		for ch := 0; ch < nch; ch++ {
			d.synth[ch].process(sub[ch][:nsb], out[:nsb])
			for i := 0; i < nsb; i++ {
				pcm[(blk*nsb+i)*nch+ch] = clampInt16(out[i])
			}
		}
	}
	return pcm, size, nil
}

// prepare keeps filter history while the stream layout is unchanged
func (d *Decoder) prepare(cfg Config) {
	if d.synth[0] != nil && d.cfg.Subbands == cfg.Subbands && d.cfg.Channels() == cfg.Channels() {
		d.cfg = cfg
		return
	}
	d.cfg = cfg
	for ch := 0; ch < 2; ch++ {
		d.synth[ch] = newSynthesis(cfg.Subbands)
	}
}

func clampInt16(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

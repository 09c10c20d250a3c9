// ABOUTME: SBC frame encoder
// ABOUTME: Analyzes 16-bit PCM into subbands, allocates bits and packs frames
package sbc

import (
	"fmt"
	"math"
)

// Encoder turns interleaved 16-bit PCM into SBC frames of a fixed layout
type Encoder struct {
	cfg      Config
	analysis [2]*analysis
}

// NewEncoder validates cfg and creates an encoder with empty filter state
func NewEncoder(cfg Config) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{cfg: cfg}
	for ch := 0; ch < cfg.Channels(); ch++ {
		e.analysis[ch] = newAnalysis(cfg.Subbands)
	}
	return e, nil
}

// Config returns the frame layout produced by the encoder
func (e *Encoder) Config() Config {
	return e.cfg
}

// CodeSize returns the number of interleaved samples consumed per frame
func (e *Encoder) CodeSize() int {
	return e.cfg.FrameSamples() * e.cfg.Channels()
}

// Reset discards filter history before an unrelated stream
func (e *Encoder) Reset() {
	for _, a := range e.analysis {
		if a != nil {
			a.reset()
		}
	}
}

// Encode encodes exactly CodeSize interleaved samples into one frame
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	if len(pcm) != e.CodeSize() {
		return nil, fmt.Errorf("sbc: encode needs %d samples, got %d", e.CodeSize(), len(pcm))
	}
	cfg := e.cfg
	nch := cfg.Channels()
	nsb := cfg.Subbands

	var sub [16][2][8]float64
	var in [8]float64
	for blk := 0; blk < cfg.Blocks; blk++ {
		for ch := 0; ch < nch; ch++ {
			for i := 0; i < nsb; i++ {
				in[i] = float64(pcm[(blk*nsb+i)*nch+ch])
			}
			e.analysis[ch].process(in[:nsb], sub[blk][ch][:nsb])
		}
	}

	var sf [2][8]int
	for ch := 0; ch < nch; ch++ {
		for sb := 0; sb < nsb; sb++ {
			sf[ch][sb] = scaleFactor(cfg.Blocks, func(blk int) float64 { return sub[blk][ch][sb] })
		}
	}

	var join [8]bool
	if cfg.Mode == JointStereo {
		for sb := 0; sb < nsb-1; sb++ {
			mid := func(blk int) float64 { return (sub[blk][0][sb] + sub[blk][1][sb]) / 2 }
			side := func(blk int) float64 { return (sub[blk][0][sb] - sub[blk][1][sb]) / 2 }
			sfMid, sfSide := scaleFactor(cfg.Blocks, mid), scaleFactor(cfg.Blocks, side)
			if sfMid+sfSide >= sf[0][sb]+sf[1][sb] {
				continue
			}
			join[sb] = true
			sf[0][sb], sf[1][sb] = sfMid, sfSide
			for blk := 0; blk < cfg.Blocks; blk++ {
				m, s := mid(blk), side(blk)
				sub[blk][0][sb], sub[blk][1][sb] = m, s
			}
		}
	}

	var bits [2][8]int
	allocateBits(cfg, &sf, &bits)

	frame := make([]byte, cfg.FrameLength())
	frame[0] = SyncWord
	frame[1] = cfg.headerByte()
	frame[2] = byte(cfg.Bitpool)

	w := bitWriter{data: frame, pos: HeaderSize * 8}
	if cfg.Mode == JointStereo {
		for sb := 0; sb < nsb; sb++ {
			if join[sb] {
				w.write(1, 1)
			} else {
				w.write(0, 1)
			}
		}
	}
	for ch := 0; ch < nch; ch++ {
		for sb := 0; sb < nsb; sb++ {
			w.write(uint32(sf[ch][sb]), 4)
		}
	}
	frame[3] = frameCRC(frame, cfg)

	for blk := 0; blk < cfg.Blocks; blk++ {
		for ch := 0; ch < nch; ch++ {
			for sb := 0; sb < nsb; sb++ {
				n := bits[ch][sb]
				if n == 0 {
					continue
				}
				w.write(quantize(sub[blk][ch][sb], sf[ch][sb], n), n)
			}
		}
	}
	return frame, nil
}

// scaleFactor returns the smallest sf with every |x| <= 2^(sf+1), capped at 15
func scaleFactor(blocks int, sample func(blk int) float64) int {
	var peak float64
	for blk := 0; blk < blocks; blk++ {
		peak = math.Max(peak, math.Abs(sample(blk)))
	}
	sf := 0
	for sf < 15 && peak > float64(int(1)<<uint(sf+1)) {
		sf++
	}
	return sf
}

func quantize(x float64, sf, bits int) uint32 {
	levels := int(uint32(1)<<uint(bits) - 1)
	scale := float64(int(1) << uint(sf+1))
	q := int((x/scale + 1) * float64(levels) / 2)
	if q < 0 {
		q = 0
	} else if q > levels {
		q = levels
	}
	return uint32(q)
}

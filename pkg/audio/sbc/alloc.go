// ABOUTME: SBC bit allocation
// ABOUTME: Derives per-subband bit counts from scale factors and bitpool
package sbc

// allocateBits fills bits[ch][sb] from the scale factors. Encoder and
// decoder run the same procedure so nothing but the scale factors travels
// in the frame.
func allocateBits(cfg Config, sf *[2][8]int, bits *[2][8]int) {
	var need [2][8]int
	nch := cfg.Channels()
	freq := freqCode(cfg.SampleRate)
	for ch := 0; ch < nch; ch++ {
		bitNeed(cfg, freq, &sf[ch], &need[ch])
	}

	if cfg.Mode == Mono || cfg.Mode == DualChannel {
		for ch := 0; ch < nch; ch++ {
			distribute(cfg.Bitpool, cfg.Subbands, []int{ch}, &need, bits)
		}
		return
	}
	distribute(cfg.Bitpool, cfg.Subbands, []int{0, 1}, &need, bits)
}

func bitNeed(cfg Config, freq int, sf *[8]int, need *[8]int) {
	for sb := 0; sb < cfg.Subbands; sb++ {
		if cfg.Allocation == SNR {
			need[sb] = sf[sb]
			continue
		}
		if sf[sb] == 0 {
			need[sb] = -5
			continue
		}
		var offset int
		if cfg.Subbands == 4 {
			offset = loudnessOffset4[freq][sb]
		} else {
			offset = loudnessOffset8[freq][sb]
		}
		loudness := sf[sb] - offset
		if loudness > 0 {
			need[sb] = loudness / 2
		} else {
			need[sb] = loudness
		}
	}
}

// distribute spends the bitpool across the given channels. Stereo modes
// share one pool between both channels, visited subband first.
func distribute(bitpool, subbands int, chans []int, need, bits *[2][8]int) {
	maxNeed := need[chans[0]][0]
	for _, ch := range chans {
		for sb := 0; sb < subbands; sb++ {
			if need[ch][sb] > maxNeed {
				maxNeed = need[ch][sb]
			}
		}
	}

	bitcount, slicecount := 0, 0
	bitslice := maxNeed + 1
	for {
		bitslice--
		bitcount += slicecount
		slicecount = 0
		for _, ch := range chans {
			for sb := 0; sb < subbands; sb++ {
				n := need[ch][sb]
				if n > bitslice+1 && n < bitslice+16 {
					slicecount++
				} else if n == bitslice+1 {
					slicecount += 2
				}
			}
		}
		if bitcount+slicecount >= bitpool {
			break
		}
	}
	if bitcount+slicecount == bitpool {
		bitcount += slicecount
		bitslice--
	}

	for _, ch := range chans {
		for sb := 0; sb < subbands; sb++ {
			n := need[ch][sb]
			if n < bitslice+2 {
				bits[ch][sb] = 0
			} else {
				bits[ch][sb] = min(n-bitslice, 16)
			}
		}
	}

	total := subbands * len(chans)
	for i := 0; bitcount < bitpool && i < total; i++ {
		ch, sb := chans[i%len(chans)], i/len(chans)
		if bits[ch][sb] >= 2 && bits[ch][sb] < 16 {
			bits[ch][sb]++
			bitcount++
		} else if need[ch][sb] == bitslice+1 && bitpool > bitcount+1 {
			bits[ch][sb] = 2
			bitcount += 2
		}
	}
	for i := 0; bitcount < bitpool && i < total; i++ {
		ch, sb := chans[i%len(chans)], i/len(chans)
		if bits[ch][sb] < 16 {
			bits[ch][sb]++
			bitcount++
		}
	}
}

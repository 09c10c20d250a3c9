// ABOUTME: Software volume for output backends
// ABOUTME: Scales 24-bit range samples with clipping
package output

import "github.com/Sendspin/sbclink-go/pkg/audio"

// volume is a 0-100 level with mute, shared by the backends
type volume struct {
	level int
	muted bool
}

func (v *volume) set(level int) {
	v.level = max(0, min(100, level))
}

func (v volume) multiplier() float64 {
	if v.muted {
		return 0
	}
	return float64(v.level) / 100
}

// apply scales samples into dst, which is grown as needed
func (v volume) apply(dst, samples []int32) []int32 {
	dst = dst[:0]
	if v.level == 100 && !v.muted {
		return append(dst, samples...)
	}
	m := v.multiplier()
	for _, s := range samples {
		dst = append(dst, audio.Clamp24(int64(float64(s)*m)))
	}
	return dst
}

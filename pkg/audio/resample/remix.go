// ABOUTME: Channel count conversion
// ABOUTME: Averages to mono, duplicates mono, and maps other layouts channel by channel
package resample

// Remix appends src (from channels, interleaved) to dst with to channels
func Remix(dst, src []int32, from, to int) []int32 {
	if from == to {
		return append(dst, src...)
	}
	frames := len(src) / from
	for f := 0; f < frames; f++ {
		frame := src[f*from : (f+1)*from]
		switch {
		case to == 1:
			var sum int64
			for _, s := range frame {
				sum += int64(s)
			}
			dst = append(dst, int32(sum/int64(from)))
		case from == 1:
			for ch := 0; ch < to; ch++ {
				dst = append(dst, frame[0])
			}
		default:
			for ch := 0; ch < to; ch++ {
				dst = append(dst, frame[ch%from])
			}
		}
	}
	return dst
}

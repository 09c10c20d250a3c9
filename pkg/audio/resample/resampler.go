// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across chunks so interpolation has no seams
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // next output position, in input frames after last
	last       []int32 // one sample per channel
	hasLast    bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]int32, channels),
	}
}

// Process appends the resampled form of input (interleaved, whole frames)
// to dst. Output lags the input by at most one frame, which is held for
// the next call.
func (r *Resampler) Process(dst, input []int32) []int32 {
	if r.inputRate == r.outputRate {
		return append(dst, input...)
	}

	frames := len(input) / r.channels
	n := frames
	if r.hasLast {
		n++
	}
	if n < 2 {
		if frames == 1 {
			copy(r.last, input)
			r.hasLast = true
		}
		return dst
	}

	for {
		idx := int(r.position)
		if idx+1 >= n {
			break
		}
		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			a := r.sample(input, idx, ch)
			b := r.sample(input, idx+1, ch)
			dst = append(dst, int32(float64(a)*(1-frac)+float64(b)*frac))
		}
		r.position += r.ratio
	}

	r.position -= float64(n - 1)
	copy(r.last, input[(frames-1)*r.channels:frames*r.channels])
	r.hasLast = true
	return dst
}

// sample reads frame i of the held frame followed by input
func (r *Resampler) sample(input []int32, i, ch int) int32 {
	if r.hasLast {
		if i == 0 {
			return r.last[ch]
		}
		i--
	}
	return input[i*r.channels+ch]
}

// Reset drops the held frame and phase
func (r *Resampler) Reset() {
	r.position = 0
	r.hasLast = false
	clear(r.last)
}

// OutputSamplesNeeded estimates how many output samples input samples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	return int(float64(inputFrames)/r.ratio) * r.channels
}

// InputSamplesNeeded estimates how many input samples produce outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	return int(float64(outputFrames)*r.ratio+0.999999) * r.channels
}

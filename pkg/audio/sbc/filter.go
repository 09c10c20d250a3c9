// ABOUTME: Polyphase analysis and synthesis filter banks
// ABOUTME: Split PCM blocks into subband samples and reconstruct them
package sbc

// analysis holds the input history of one channel's analysis filter
type analysis struct {
	m int
	x []float64
}

func newAnalysis(subbands int) *analysis {
	return &analysis{m: subbands, x: make([]float64, 10*subbands)}
}

func (a *analysis) reset() {
	for i := range a.x {
		a.x[i] = 0
	}
}

// process consumes m PCM samples and writes m subband samples to out
func (a *analysis) process(in, out []float64) {
	m := a.m
	copy(a.x[m:], a.x[:len(a.x)-m])
	for i := 0; i < m; i++ {
		a.x[m-1-i] = in[i]
	}

	window := protoWindow(m)
	var y [16]float64
	for i := 0; i < 2*m; i++ {
		var sum float64
		for j := 0; j < 5; j++ {
			idx := i + 2*m*j
			sum += window[idx] * a.x[idx]
		}
		y[i] = sum
	}

	cos := analysisCos8
	if m == 4 {
		cos = analysisCos4
	}
	for i := 0; i < m; i++ {
		var sum float64
		row := cos[i*2*m : (i+1)*2*m]
		for k, c := range row {
			sum += c * y[k]
		}
		out[i] = sum
	}
}

// synthesis holds the matrixed history of one channel's synthesis filter
type synthesis struct {
	m int
	v []float64
}

func newSynthesis(subbands int) *synthesis {
	return &synthesis{m: subbands, v: make([]float64, 20*subbands)}
}

func (s *synthesis) reset() {
	for i := range s.v {
		s.v[i] = 0
	}
}

// process consumes m subband samples and writes m PCM samples to out
func (s *synthesis) process(in, out []float64) {
	m := s.m
	copy(s.v[2*m:], s.v[:len(s.v)-2*m])

	cos := synthesisCos8
	if m == 4 {
		cos = synthesisCos4
	}
	for k := 0; k < 2*m; k++ {
		var sum float64
		row := cos[k*m : (k+1)*m]
		for i, c := range row {
			sum += c * in[i]
		}
		s.v[k] = sum
	}

	window := protoWindow(m)
	gain := -float64(m)
	for j := 0; j < m; j++ {
		var sum float64
		for i := 0; i < 10; i++ {
			idx := j + m*i
			block, r := idx/(2*m), idx%(2*m)
			var u float64
			if r < m {
				u = s.v[block*4*m+r]
			} else {
				u = s.v[block*4*m+2*m+r]
			}
			sum += u * window[idx] * gain
		}
		out[j] = sum
	}
}

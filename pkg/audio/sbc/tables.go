// ABOUTME: Constant tables for the SBC filter banks and bit allocation
// ABOUTME: Prototype filter windows, cosine modulation matrices and loudness offsets
package sbc

import "math"

// Prototype lowpass windows for 4 and 8 subbands
var proto4 = [40]float64{
	0.00000000e+00, 5.36548976e-04, 1.49188357e-03, 2.73370904e-03,
	3.83720193e-03, 3.89205149e-03, 1.86581691e-03, -3.06012286e-03,
	1.09137620e-02, 2.04385087e-02, 2.88757392e-02, 3.21939290e-02,
	2.58767811e-02, 6.13245186e-03, -2.88217274e-02, -7.76463494e-02,
	1.35593274e-01, 1.94987841e-01, 2.46636662e-01, 2.81828203e-01,
	2.94315332e-01, 2.81828203e-01, 2.46636662e-01, 1.94987841e-01,
	-1.35593274e-01, -7.76463494e-02, -2.88217274e-02, 6.13245186e-03,
	2.58767811e-02, 3.21939290e-02, 2.88757392e-02, 2.04385087e-02,
	-1.09137620e-02, -3.06012286e-03, 1.86581691e-03, 3.89205149e-03,
	3.83720193e-03, 2.73370904e-03, 1.49188357e-03, 5.36548976e-04,
}

var proto8 = [80]float64{
	0.00000000e+00, 1.56575398e-04, 3.43256425e-04, 5.54620202e-04,
	8.23919506e-04, 1.13992507e-03, 1.47640169e-03, 1.78371725e-03,
	2.01182542e-03, 2.10371989e-03, 1.99454554e-03, 1.61656283e-03,
	9.02154502e-04, -1.78805361e-04, -1.64973098e-03, -3.49717454e-03,
	5.65949473e-03, 8.02941163e-03, 1.04584443e-02, 1.27472335e-02,
	1.46525263e-02, 1.59045603e-02, 1.62208471e-02, 1.53184106e-02,
	1.29371806e-02, 8.85757540e-03, 2.92408442e-03, -4.91578024e-03,
	-1.46404076e-02, -2.61098752e-02, -3.90751381e-02, -5.31873032e-02,
	6.79989431e-02, 8.29847578e-02, 9.75753918e-02, 1.11196689e-01,
	1.23264548e-01, 1.33264415e-01, 1.40753505e-01, 1.45389847e-01,
	1.46955068e-01, 1.45389847e-01, 1.40753505e-01, 1.33264415e-01,
	1.23264548e-01, 1.11196689e-01, 9.75753918e-02, 8.29847578e-02,
	-6.79989431e-02, -5.31873032e-02, -3.90751381e-02, -2.61098752e-02,
	-1.46404076e-02, -4.91578024e-03, 2.92408442e-03, 8.85757540e-03,
	1.29371806e-02, 1.53184106e-02, 1.62208471e-02, 1.59045603e-02,
	1.46525263e-02, 1.27472335e-02, 1.04584443e-02, 8.02941163e-03,
	-5.65949473e-03, -3.49717454e-03, -1.64973098e-03, -1.78805361e-04,
	9.02154502e-04, 1.61656283e-03, 1.99454554e-03, 2.10371989e-03,
	2.01182542e-03, 1.78371725e-03, 1.47640169e-03, 1.13992507e-03,
	8.23919506e-04, 5.54620202e-04, 3.43256425e-04, 1.56575398e-04,
}

// Loudness allocation offsets indexed by sample rate code and subband
var loudnessOffset4 = [4][4]int{
	{-1, 0, 0, 0},
	{-2, 0, 0, 1},
	{-2, 0, 0, 1},
	{-2, 0, 0, 1},
}

var loudnessOffset8 = [4][8]int{
	{-2, 0, 0, 0, 0, 0, 0, 1},
	{-3, 0, 0, 0, 0, 0, 1, 2},
	{-4, 0, 0, 0, 0, 0, 1, 2},
	{-4, 0, 0, 0, 0, 0, 1, 2},
}

// Cosine modulation matrices, row-major.
// analysis[i*2M+k] = cos((i+0.5)(k-M/2)pi/M), i < M, k < 2M
// synthesis[k*M+i] = cos((i+0.5)(k+M/2)pi/M), k < 2M, i < M
var (
	analysisCos4, analysisCos8   = analysisMatrix(4), analysisMatrix(8)
	synthesisCos4, synthesisCos8 = synthesisMatrix(4), synthesisMatrix(8)
)

func analysisMatrix(m int) []float64 {
	out := make([]float64, m*2*m)
	for i := 0; i < m; i++ {
		for k := 0; k < 2*m; k++ {
			out[i*2*m+k] = math.Cos((float64(i) + 0.5) * (float64(k) - float64(m)/2) * math.Pi / float64(m))
		}
	}
	return out
}

func synthesisMatrix(m int) []float64 {
	out := make([]float64, 2*m*m)
	for k := 0; k < 2*m; k++ {
		for i := 0; i < m; i++ {
			out[k*m+i] = math.Cos((float64(i) + 0.5) * (float64(k) + float64(m)/2) * math.Pi / float64(m))
		}
	}
	return out
}

func protoWindow(m int) []float64 {
	if m == 4 {
		return proto4[:]
	}
	return proto8[:]
}

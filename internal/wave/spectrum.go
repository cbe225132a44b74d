package wave

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// MinSpectrumLen is the shortest series Spectrum accepts.
const MinSpectrumLen = 4

// SpectrumResult is the one-sided power spectrum of a series sampled once
// per time step.
type SpectrumResult struct {
	Power          []float64 // Power[k] for k = 0..n/2
	Frequency      []float64 // cycles per time step
	DominantIndex  int
	DominantPeriod float64 // time steps
}

// Spectrum removes the mean, transforms the series and picks the strongest
// non-zero frequency. NaN samples are replaced by the mean.
func Spectrum(series []float64) (*SpectrumResult, error) {
	n := len(series)
	if n < MinSpectrumLen {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrShortSeries, n, MinSpectrumLen)
	}

	_, _, mean, valid := stats(series)
	if valid == 0 {
		return nil, fmt.Errorf("%w: series is all missing", ErrShortSeries)
	}
	x := make([]float64, n)
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		x[i] = v - mean
	}

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	res := &SpectrumResult{
		Power:     make([]float64, half),
		Frequency: make([]float64, half),
	}
	best := 0.0
	for k := 0; k < half; k++ {
		a := cmplx.Abs(coeffs[k])
		res.Power[k] = a * a / float64(n)
		res.Frequency[k] = float64(k) / float64(n)
		if k > 0 && res.Power[k] > best {
			best = res.Power[k]
			res.DominantIndex = k
		}
	}
	if res.DominantIndex > 0 {
		res.DominantPeriod = float64(n) / float64(res.DominantIndex)
	}
	return res, nil
}

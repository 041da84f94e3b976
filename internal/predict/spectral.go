package predict

import (
	"context"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/agbru/primelab/internal/primes"
)

// spectralMinKnown leaves at least one non-DC bin below Nyquist.
const spectralMinKnown = 6

// Spectral looks for a periodic pattern in the sequence of prime
// frequencies. The strongest bin k in 1..n/2-1 of the real FFT defines a
// pattern length n/k; when that length is shorter than the sequence the
// next increment repeats known[n mod length] − known[0], otherwise it is
// the mean of the last five gaps.
type Spectral struct{}

func (Spectral) Name() string { return NameSpectral }

func (Spectral) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, spectralMinKnown, NameSpectral); err != nil {
		return Prediction{}, err
	}
	n := len(known)
	seq := make([]float64, n)
	for i, p := range known {
		seq[i] = primes.Frequency(float64(p))
	}
	bin, power := dominantBin(seq)
	patternLen := n / bin

	p := float64(last(known))
	var increment float64
	if patternLen > 0 && patternLen < n {
		increment = float64(known[n%patternLen] - known[0])
	} else {
		increment = meanRecentGap(known, 5)
	}

	pred := snapped(NameSpectral, p+increment, 0)
	pred.Details = map[string]float64{
		"dominant_frequency": float64(bin) / float64(n),
		"pattern_length":     float64(patternLen),
		"power":              power,
		"increment":          increment,
	}
	return pred, nil
}

// DominantPeriod returns the period n/k, in samples, of the strongest
// non-DC bin k of xs, or 0 when xs is too short to have one.
func DominantPeriod(xs []float64) float64 {
	bin, _ := dominantBin(xs)
	if bin == 0 {
		return 0
	}
	return float64(len(xs)) / float64(bin)
}

// dominantBin returns the index and magnitude of the largest real-FFT
// coefficient in 1..n/2-1. Fewer than four samples give bin 0.
func dominantBin(xs []float64) (int, float64) {
	n := len(xs)
	if n < 4 {
		return 0, 0
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, xs)
	bin, power := 0, -1.0
	for k := 1; k < n/2; k++ {
		if m := cmplx.Abs(coeffs[k]); m > power {
			bin, power = k, m
		}
	}
	return bin, power
}

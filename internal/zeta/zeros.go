// Package zeta compares prime "frequencies" with the imaginary parts of the
// non-trivial Riemann zeta zeros. It provides the nearest-neighbour search
// that every correlation in primelab is built on, the correlation and
// support metrics, gap statistics, next-zero extrapolation and a
// Riemann–Siegel evaluator that can re-locate the reference zeros.
package zeta

import (
	"errors"
	"fmt"
	"math"

	"github.com/agbru/primelab/internal/primes"
)

var (
	// ErrEmptyReference is returned when a nearest search gets no candidates.
	ErrEmptyReference = errors.New("empty reference list")
	// ErrInsufficientData is returned when a statistic needs more points.
	ErrInsufficientData = errors.New("insufficient data")
)

// StrongThreshold is the strength above which a correlation counts as strong.
const StrongThreshold = 0.5

// ZeroFrequency maps a zero's imaginary part t to t/(2π).
func ZeroFrequency(t float64) float64 {
	return t / (2 * math.Pi)
}

// Frequencies applies ZeroFrequency to every zero.
func Frequencies(zeros []float64) []float64 {
	out := make([]float64, len(zeros))
	for i, z := range zeros {
		out[i] = ZeroFrequency(z)
	}
	return out
}

// Match is the result of a nearest-neighbour search.
type Match struct {
	Index    int     `json:"index"`
	Value    float64 `json:"value"`
	Distance float64 `json:"distance"`
}

// Nearest scans refs linearly and returns the element with the minimum
// absolute difference from v. The first occurrence wins a tie.
//
// Parameters:
//   - v: The query value.
//   - refs: The reference values, in any order.
//
// Returns:
//   - Match: The index, value and distance of the closest reference.
//   - error: ErrEmptyReference if refs is empty.
func Nearest(v float64, refs []float64) (Match, error) {
	if len(refs) == 0 {
		return Match{}, ErrEmptyReference
	}
	best := Match{Index: 0, Value: refs[0], Distance: math.Abs(refs[0] - v)}
	for i := 1; i < len(refs); i++ {
		if d := math.Abs(refs[i] - v); d < best.Distance {
			best = Match{Index: i, Value: refs[i], Distance: d}
		}
	}
	return best, nil
}

// Strength converts a frequency distance into the zero-correlation strength
// 1/(1+10d).
func Strength(distance float64) float64 {
	return 1 / (1 + 10*distance)
}

// SyncStrength is the looser predictive-law strength 1/(1+d).
func SyncStrength(distance float64) float64 {
	return 1 / (1 + distance)
}

// Correlation links one zeta zero to the closest prime frequency.
type Correlation struct {
	Zero           float64 `json:"zero"`
	ZeroFrequency  float64 `json:"zero_frequency"`
	Prime          int     `json:"prime"`
	PrimeFrequency float64 `json:"prime_frequency"`
	Distance       float64 `json:"distance"`
	Ratio          float64 `json:"ratio"`
	Strength       float64 `json:"strength"`
}

// Correlate pairs every zero with the prime whose frequency p/π is closest
// to the zero frequency t/(2π).
//
// Parameters:
//   - zeros: Imaginary parts of zeta zeros.
//   - ps: Candidate primes.
//
// Returns:
//   - []Correlation: One entry per zero, in input order.
//   - error: ErrEmptyReference if ps is empty.
func Correlate(zeros []float64, ps []int) ([]Correlation, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("correlate: %w", ErrEmptyReference)
	}
	freqs := make([]float64, len(ps))
	for i, p := range ps {
		freqs[i] = primes.Frequency(float64(p))
	}

	out := make([]Correlation, 0, len(zeros))
	for _, z := range zeros {
		zf := ZeroFrequency(z)
		m, err := Nearest(zf, freqs)
		if err != nil {
			return nil, err
		}
		out = append(out, Correlation{
			Zero:           z,
			ZeroFrequency:  zf,
			Prime:          ps[m.Index],
			PrimeFrequency: m.Value,
			Distance:       m.Distance,
			Ratio:          zf / m.Value,
			Strength:       Strength(m.Distance),
		})
	}
	return out, nil
}

// SupportScore summarises a set of correlations.
type SupportScore struct {
	MeanStrength   float64 `json:"mean_strength"`
	StrongCount    int     `json:"strong_count"`
	StrongFraction float64 `json:"strong_fraction"`
	// Score is MeanStrength × StrongFraction.
	Score float64 `json:"score"`
}

// Support aggregates correlation strengths. An empty input yields a zero
// score.
func Support(corrs []Correlation) SupportScore {
	if len(corrs) == 0 {
		return SupportScore{}
	}
	var sum float64
	strong := 0
	for _, c := range corrs {
		sum += c.Strength
		if c.Strength > StrongThreshold {
			strong++
		}
	}
	s := SupportScore{
		MeanStrength:   sum / float64(len(corrs)),
		StrongCount:    strong,
		StrongFraction: float64(strong) / float64(len(corrs)),
	}
	s.Score = s.MeanStrength * s.StrongFraction
	return s
}

// Density is the number of values per unit of the covered range,
// (n-1)/(max-min). Fewer than two values, or a zero span, give 0.
func Density(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return 0
	}
	return float64(len(values)-1) / (hi - lo)
}

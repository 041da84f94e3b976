// Package calibration tunes the large-prime circuit model on the current
// machine. This file defines the parameter grid and the sample primes.
package calibration

import (
	"fmt"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/primes"
)

// ─────────────────────────────────────────────────────────────────────────────
// Parameter Grid
// ─────────────────────────────────────────────────────────────────────────────

// Grid lists the values tried for each tunable parameter of
// circuit.LargePrimeModel. The threshold is not searched.
type Grid struct {
	K              []float64
	SizeCorrection []float64
	EnergyScaling  []float64
}

// DefaultGrid returns the 5 × 4 × 4 grid searched by -calibrate.
func DefaultGrid() Grid {
	return Grid{
		K:              []float64{0.45, 0.47, 0.48, 0.49, 0.50},
		SizeCorrection: []float64{0.0005, 0.001, 0.0015, 0.002},
		EnergyScaling:  []float64{1.0, 1.1, 1.2, 1.3},
	}
}

// Size returns the number of candidate models in the grid.
func (g Grid) Size() int {
	return len(g.K) * len(g.SizeCorrection) * len(g.EnergyScaling)
}

// Candidates expands the grid into models, k varying slowest and energy
// scaling fastest. Every candidate uses base.Threshold.
func (g Grid) Candidates(base circuit.LargePrimeModel) []circuit.LargePrimeModel {
	out := make([]circuit.LargePrimeModel, 0, g.Size())
	for _, k := range g.K {
		for _, sc := range g.SizeCorrection {
			for _, es := range g.EnergyScaling {
				out = append(out, circuit.LargePrimeModel{
					K:              k,
					Threshold:      base.Threshold,
					SizeCorrection: sc,
					EnergyScaling:  es,
				})
			}
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Sample Selection
// ─────────────────────────────────────────────────────────────────────────────

// Default sample range and size: the first five primes in [100, 150).
const (
	DefaultSampleLow  = 100
	DefaultSampleHigh = 150
	DefaultSampleSize = 5
)

// SamplePrimes returns up to n primes p with low <= p < high, ascending.
//
// Returns:
//   - []int: The sample.
//   - error: An error if the range holds no prime or n is not positive.
func SamplePrimes(low, high, n int) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	var out []int
	for p := max(low, 2); p < high && len(out) < n; p++ {
		if primes.IsPrime(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no prime in [%d, %d)", low, high)
	}
	return out, nil
}

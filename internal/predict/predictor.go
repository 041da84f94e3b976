// Package predict contains the next-prime heuristics. Each heuristic is a
// Predictor: given the ascending list of known primes it produces a
// real-valued estimate and a prime obtained by rounding and nudging that
// estimate. None of the heuristics is a validated algorithm; Accuracy and
// Backtest exist to measure how badly each one does.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/refdata"
)

// ErrInsufficientData is returned when the known list is too short for a
// predictor.
var ErrInsufficientData = errors.New("insufficient data")

// Prediction is the output of a single Predictor run.
type Prediction struct {
	Method string `json:"method"`
	// Raw is the real-valued estimate before rounding.
	Raw float64 `json:"raw"`
	// Prime is the estimate after rounding and nudging. It is usually, but
	// not necessarily, prime.
	Prime int `json:"prime"`
	// Confidence is the self-assigned confidence in [0, 1]; 0 means unrated.
	Confidence float64 `json:"confidence"`
	// Details holds method-specific intermediate values.
	Details map[string]float64 `json:"details,omitempty"`
}

// Predictor guesses the prime that follows the last element of known.
type Predictor interface {
	// Name returns the registry name.
	Name() string

	// Predict estimates the successor of known[len(known)-1]. known must be
	// ascending.
	//
	// Parameters:
	//   - ctx: Context for cancellation.
	//   - known: The ascending list of known primes.
	//
	// Returns:
	//   - Prediction: The estimate.
	//   - error: ErrInsufficientData if known is too short, or ctx.Err().
	Predict(ctx context.Context, known []int) (Prediction, error)
}

// Options configures the predictors that depend on external parameters.
type Options struct {
	// Zeros are the zeta zeros used by the zeta-aware predictors.
	Zeros []float64
	// Corrector is the circuit correction model.
	Corrector circuit.Corrector
	// LargePrime holds the adaptive circuit parameters.
	LargePrime circuit.LargePrimeModel
	// Voltage is the applied voltage for circuit simulations.
	Voltage float64
}

// DefaultOptions returns options built from the embedded reference data,
// the dynamic correction and the default large-prime model at 10 V.
func DefaultOptions() Options {
	return Options{
		Zeros:      refdata.Default().Zeros(),
		Corrector:  circuit.DefaultDynamic,
		LargePrime: circuit.DefaultLargePrimeModel(),
		Voltage:    10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.Zeros) == 0 {
		o.Zeros = d.Zeros
	}
	if o.Corrector == nil {
		o.Corrector = d.Corrector
	}
	if o.LargePrime == (circuit.LargePrimeModel{}) {
		o.LargePrime = d.LargePrime
	}
	if o.Voltage <= 0 {
		o.Voltage = d.Voltage
	}
	return o
}

// minKnown is the shortest known list any predictor accepts.
const minKnown = 2

// check fails fast on a done context or a known list shorter than n.
func check(ctx context.Context, known []int, n int, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(known) < n {
		return fmt.Errorf("%s needs at least %d known primes, have %d: %w", name, n, len(known), ErrInsufficientData)
	}
	return nil
}

func last(known []int) int { return known[len(known)-1] }

// meanRecentGap is the mean of up to k trailing gaps of known.
func meanRecentGap(known []int, k int) float64 {
	start := max(1, len(known)-k)
	var sum float64
	for i := start; i < len(known); i++ {
		sum += float64(known[i] - known[i-1])
	}
	return sum / float64(len(known)-start)
}

// Accuracy scores a prediction against the true value as
// max(0, 100 − |predicted − actual|/actual·100).
func Accuracy(predicted, actual float64) float64 {
	if actual == 0 {
		return 0
	}
	return math.Max(0, 100-math.Abs(predicted-actual)/math.Abs(actual)*100)
}

package predict

import (
	"context"
	"math"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/primes"
)

// scanCeiling bounds the "+1 until prime" walk of the circuit predictors.
const scanCeiling = 50

// Circuit recovers the last prime through the RLC model and multiplies the
// raw value by the correction factor evaluated at p + 2. The estimate is
// rounded and walked upwards, never below p + 1, to the first prime under
// p + 50.
type Circuit struct {
	Corrector circuit.Corrector
	Voltage   float64
}

// NewCircuit builds the predictor from options.
func NewCircuit(o Options) Circuit {
	o = o.withDefaults()
	return Circuit{Corrector: o.Corrector, Voltage: o.Voltage}
}

func (Circuit) Name() string { return NameCircuit }

func (c Circuit) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameCircuit); err != nil {
		return Prediction{}, err
	}
	p := last(known)
	sim, err := circuit.Simulate(float64(p), c.Voltage)
	if err != nil {
		return Prediction{}, err
	}
	raw, err := circuit.Recover(sim)
	if err != nil {
		return Prediction{}, err
	}
	factor := c.Corrector.Factor(float64(p + 2))
	estimate := raw * factor

	start := max(int(math.Round(estimate)), p+1)
	return Prediction{
		Method:     NameCircuit,
		Raw:        estimate,
		Prime:      primes.ScanUp(start, p+scanCeiling),
		Confidence: 0,
		Details: map[string]float64{
			"recovered": raw,
			"factor":    factor,
		},
	}, nil
}

// LargePrime extrapolates with the adaptive large-prime circuit and walks
// the rounded estimate upwards to a prime, giving up at p + 50.
type LargePrime struct {
	Model   circuit.LargePrimeModel
	Voltage float64
}

// NewLargePrime builds the predictor from options.
func NewLargePrime(o Options) LargePrime {
	o = o.withDefaults()
	return LargePrime{Model: o.LargePrime, Voltage: o.Voltage}
}

func (LargePrime) Name() string { return NameLargePrime }

func (l LargePrime) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameLargePrime); err != nil {
		return Prediction{}, err
	}
	p := last(known)
	estimate, sim, err := l.Model.Extrapolate(float64(p), l.Voltage)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{
		Method: NameLargePrime,
		Raw:    estimate,
		Prime:  primes.ScanUp(int(math.Round(estimate)), p+scanCeiling),
		Details: map[string]float64{
			"adaptive_k": sim.AdaptiveK,
			"e_total":    sim.ETotal,
			"impedance":  sim.Impedance.Magnitude,
		},
	}, nil
}

package predict

import (
	"context"
	"fmt"
	"math"

	"github.com/agbru/primelab/internal/fit"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/zeta"
)

// Registered predictor names.
const (
	NameGapMean        = "gap-mean"
	NameResistance     = "resistance"
	NameUnified        = "unified"
	NameGolden         = "golden"
	NameFrequency      = "frequency"
	NameErrorCorrected = "error-corrected"
	NameAdvanced       = "advanced"
	NameCircuit        = "circuit"
	NameLargePrime     = "large-prime"
	NameZetaSync       = "zeta-sync"
	NameRegression     = "regression"
	NameSpectral       = "spectral"
	NameEnsemble       = "ensemble"
)

// Phi is the golden ratio.
var Phi = (1 + math.Sqrt(5)) / 2

// Error-correction line fitted to the frequency predictor's overshoot.
const (
	errorCorrectionSlope     = 0.02169976
	errorCorrectionIntercept = 0.5598853
)

func snapped(method string, raw, conf float64) Prediction {
	return Prediction{Method: method, Raw: raw, Prime: primes.Snap(raw), Confidence: conf}
}

// GapMean adds the mean of the last four gaps and a frequency term 0.1·p/π.
// With fewer than three known primes it falls back to p + 2.
type GapMean struct{}

func (GapMean) Name() string { return NameGapMean }

func (GapMean) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameGapMean); err != nil {
		return Prediction{}, err
	}
	return snapped(NameGapMean, gapMeanRaw(known), 0.75), nil
}

func gapMeanRaw(known []int) float64 {
	p := float64(last(known))
	if len(known) < 3 {
		return p + 2
	}
	return p + meanRecentGap(known, 4) + primes.Frequency(p)*0.1
}

// Resistance steps by the circuit resistance times π: p + √p·π.
type Resistance struct{}

func (Resistance) Name() string { return NameResistance }

func (Resistance) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameResistance); err != nil {
		return Prediction{}, err
	}
	p := float64(last(known))
	return snapped(NameResistance, p+math.Sqrt(p)*math.Pi, 0.80), nil
}

// Unified blends the rounded gap-mean and resistance estimates 0.4/0.6.
type Unified struct{}

func (Unified) Name() string { return NameUnified }

func (Unified) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameUnified); err != nil {
		return Prediction{}, err
	}
	p := float64(last(known))
	a := math.Round(gapMeanRaw(known))
	b := math.Round(p + math.Sqrt(p)*math.Pi)
	pred := snapped(NameUnified, 0.4*a+0.6*b, 0.4*0.75+0.6*0.80)
	pred.Details = map[string]float64{"gap_mean": a, "resistance": b}
	return pred, nil
}

// Golden steps by p/φ.
type Golden struct{}

func (Golden) Name() string { return NameGolden }

func (Golden) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameGolden); err != nil {
		return Prediction{}, err
	}
	p := float64(last(known))
	return snapped(NameGolden, p+p/Phi, 0), nil
}

// Frequency steps by 0.5·√p + 0.5·ln(p/π).
type Frequency struct{}

func (Frequency) Name() string { return NameFrequency }

func (Frequency) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameFrequency); err != nil {
		return Prediction{}, err
	}
	return snapped(NameFrequency, frequencyRaw(float64(last(known))), 0), nil
}

func frequencyRaw(p float64) float64 {
	return p + math.Sqrt(p)*0.5 + math.Log(primes.Frequency(p))*0.5
}

// ErrorCorrected subtracts the fitted linear overshoot
// 0.02169976·p + 0.5598853 from the frequency estimate.
type ErrorCorrected struct{}

func (ErrorCorrected) Name() string { return NameErrorCorrected }

func (ErrorCorrected) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameErrorCorrected); err != nil {
		return Prediction{}, err
	}
	p := float64(last(known))
	base := frequencyRaw(p)
	pred := snapped(NameErrorCorrected, base-(errorCorrectionSlope*p+errorCorrectionIntercept), 0.95)
	pred.Details = map[string]float64{"uncorrected": base}
	return pred, nil
}

// Advanced fits gap ≈ quadratic(p/π) over the known primes and adds three
// corrections: 0.05·p/π, 0.1·√p and a zeta influence 2/(1+d), where d is
// the distance from p/π to the nearest zero.
type Advanced struct {
	Zeros []float64
}

func (Advanced) Name() string { return NameAdvanced }

func (a Advanced) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, 4, NameAdvanced); err != nil {
		return Prediction{}, err
	}
	freqs := make([]float64, len(known)-1)
	gaps := make([]float64, len(known)-1)
	for i := 0; i < len(known)-1; i++ {
		freqs[i] = primes.Frequency(float64(known[i]))
		gaps[i] = float64(known[i+1] - known[i])
	}
	poly, err := fit.Polynomial(freqs, gaps, 2)
	if err != nil {
		return Prediction{}, fmt.Errorf("advanced: %w: %w", ErrInsufficientData, err)
	}

	p := float64(last(known))
	f := primes.Frequency(p)
	influence := 0.0
	if m, err := zeta.Nearest(f, a.Zeros); err == nil {
		influence = 2 * zeta.SyncStrength(m.Distance)
	}
	gap := poly.Eval(f) + f*0.05 + math.Sqrt(p)*0.1 + influence

	pred := snapped(NameAdvanced, p+gap, 0.85)
	pred.Details = map[string]float64{"predicted_gap": gap, "zeta_influence": influence}
	return pred, nil
}

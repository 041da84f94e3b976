package predict

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/agbru/primelab/internal/fit"
)

// Regression learns next = g(p) from consecutive pairs of known primes,
// where g is a second-order model in the standardised features p and √p.
// The pure √p² term is left out because it is a linear combination of the
// other standardised terms.
type Regression struct{}

// regressionMinKnown gives six training pairs for five coefficients.
const regressionMinKnown = 7

func (Regression) Name() string { return NameRegression }

func (Regression) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, regressionMinKnown, NameRegression); err != nil {
		return Prediction{}, err
	}
	n := len(known) - 1
	ps := make([]float64, n)
	ss := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		ps[i] = float64(known[i])
		ss[i] = math.Sqrt(ps[i])
		y[i] = float64(known[i+1])
	}
	muP, sdP := stat.PopMeanStdDev(ps, nil)
	muS, sdS := stat.PopMeanStdDev(ss, nil)
	if sdP == 0 || sdS == 0 {
		return Prediction{}, fmt.Errorf("regression features are constant: %w", ErrInsufficientData)
	}

	features := func(p float64) []float64 {
		zp := (p - muP) / sdP
		zs := (math.Sqrt(p) - muS) / sdS
		return []float64{zp, zs, zp * zp, zp * zs}
	}
	X := make([][]float64, n)
	for i := range ps {
		X[i] = features(ps[i])
	}
	model, err := fit.Multivariate(X, y)
	if err != nil {
		return Prediction{}, fmt.Errorf("regression: %w: %w", ErrInsufficientData, err)
	}

	var relErr float64
	for i, row := range X {
		relErr += math.Abs(model.Predict(row)-y[i]) / y[i]
	}
	conf := math.Max(0, math.Min(1, 1-relErr/float64(n)))

	raw := model.Predict(features(float64(last(known))))
	pred := snapped(NameRegression, raw, conf)
	pred.Details = map[string]float64{"r2": model.R2}
	return pred, nil
}

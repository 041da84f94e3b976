package predict

import (
	"context"
	"errors"
	"fmt"
)

// ensembleWeights apply, in order, to regression, spectral, zeta-sync and
// unified when all four succeed.
var ensembleWeights = []float64{0.3, 0.25, 0.25, 0.2}

// Ensemble combines the data-driven and unified predictors. A weighted sum
// is used when every member succeeds, a plain mean otherwise.
type Ensemble struct {
	Members []Predictor
}

// NewEnsemble builds the default four-member ensemble.
func NewEnsemble(o Options) Ensemble {
	o = o.withDefaults()
	return Ensemble{Members: []Predictor{
		Regression{},
		Spectral{},
		ZetaSync{Zeros: o.Zeros},
		Unified{},
	}}
}

func (Ensemble) Name() string { return NameEnsemble }

func (e Ensemble) Predict(ctx context.Context, known []int) (Prediction, error) {
	if err := check(ctx, known, minKnown, NameEnsemble); err != nil {
		return Prediction{}, err
	}
	details := make(map[string]float64, len(e.Members))
	values := make([]float64, 0, len(e.Members))
	var errs []error
	for _, m := range e.Members {
		pred, err := m.Predict(ctx, known)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Prediction{}, ctxErr
			}
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
			continue
		}
		details[m.Name()] = float64(pred.Prime)
		values = append(values, float64(pred.Prime))
	}
	if len(values) == 0 {
		return Prediction{}, fmt.Errorf("ensemble has no usable members: %w", errors.Join(append(errs, ErrInsufficientData)...))
	}

	var combined float64
	if len(values) == len(ensembleWeights) && len(e.Members) == len(ensembleWeights) {
		for i, v := range values {
			combined += v * ensembleWeights[i]
		}
	} else {
		for _, v := range values {
			combined += v
		}
		combined /= float64(len(values))
	}

	pred := snapped(NameEnsemble, combined, 0.90)
	pred.Details = details
	return pred, nil
}

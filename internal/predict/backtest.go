package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Step is one walk-forward evaluation: the first Index primes were known
// and Actual was the prime to guess.
type Step struct {
	Index     int     `json:"index"`
	Last      int     `json:"last"`
	Actual    int     `json:"actual"`
	Predicted int     `json:"predicted"`
	Raw       float64 `json:"raw"`
	Error     int     `json:"error"`
	Accuracy  float64 `json:"accuracy"`
}

// BacktestResult aggregates a walk-forward run.
type BacktestResult struct {
	Predictor    string  `json:"predictor"`
	Steps        []Step  `json:"steps"`
	Evaluated    int     `json:"evaluated"`
	Skipped      int     `json:"skipped"`
	Hits         int     `json:"hits"`
	HitRate      float64 `json:"hit_rate"`
	MeanAccuracy float64 `json:"mean_accuracy"`
	MeanAbsError float64 `json:"mean_abs_error"`
}

// Backtest walks forward over ps: for every index i in [from, to) the
// predictor sees ps[:i] and is scored against ps[i]. Steps where the
// predictor reports ErrInsufficientData are counted as skipped; any other
// error aborts the run.
//
// Parameters:
//   - ctx: Context for cancellation, checked before each step.
//   - p: The predictor under test.
//   - ps: Ascending primes.
//   - from, to: Index range, 1 <= from < to <= len(ps).
//
// Returns:
//   - BacktestResult: Per-step results and aggregates.
//   - error: An error if the range is invalid, ctx is done, or the
//     predictor fails.
func Backtest(ctx context.Context, p Predictor, ps []int, from, to int) (BacktestResult, error) {
	if from < 1 || to > len(ps) || from >= to {
		return BacktestResult{}, fmt.Errorf("backtest range [%d, %d) over %d primes: %w", from, to, len(ps), ErrInsufficientData)
	}
	res := BacktestResult{Predictor: p.Name(), Steps: make([]Step, 0, to-from)}
	var accSum, errSum float64
	for i := from; i < to; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pred, err := p.Predict(ctx, ps[:i])
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("%s at index %d: %w", p.Name(), i, err)
		}
		actual := ps[i]
		st := Step{
			Index:     i,
			Last:      ps[i-1],
			Actual:    actual,
			Predicted: pred.Prime,
			Raw:       pred.Raw,
			Error:     pred.Prime - actual,
			Accuracy:  Accuracy(float64(pred.Prime), float64(actual)),
		}
		res.Steps = append(res.Steps, st)
		if st.Error == 0 {
			res.Hits++
		}
		accSum += st.Accuracy
		errSum += math.Abs(float64(st.Error))
	}
	res.Evaluated = len(res.Steps)
	if res.Evaluated > 0 {
		n := float64(res.Evaluated)
		res.HitRate = float64(res.Hits) / n
		res.MeanAccuracy = accSum / n
		res.MeanAbsError = errSum / n
	}
	return res, nil
}

package calibration

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
)

// scanCeiling bounds the upward walk from a rounded estimate to a prime.
const scanCeiling = 50

// Result is the score of one candidate model.
type Result struct {
	Model circuit.LargePrimeModel
	// MeanAccuracy is the mean accuracy, in percent, over the samples that
	// scored above zero.
	MeanAccuracy float64
	// Scored is the number of samples that contributed to MeanAccuracy.
	Scored int
	Err    error
}

// evaluate scores model on samples at voltage v. Each sample p is
// extrapolated, rounded and walked up to a prime below p + 50, then scored
// against the true successor of p. Samples scoring 0 are left out of the
// mean.
func evaluate(ctx context.Context, model circuit.LargePrimeModel, samples []int, v float64) Result {
	res := Result{Model: model}
	var sum float64
	for _, p := range samples {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		estimate, _, err := model.Extrapolate(float64(p), v)
		if err != nil {
			res.Err = err
			return res
		}
		predicted := primes.ScanUp(int(math.Round(estimate)), p+scanCeiling)
		acc := predict.Accuracy(float64(predicted), float64(primes.NextPrime(p)))
		if acc > 0 {
			sum += acc
			res.Scored++
		}
	}
	if res.Scored > 0 {
		res.MeanAccuracy = sum / float64(res.Scored)
	}
	return res
}

// Search scores every candidate concurrently, at most GOMAXPROCS at a
// time. Progress is reported on progressChan as analysis index 0; a nil
// channel disables reporting.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - candidates: The models to score.
//   - samples: The sample primes.
//   - v: The applied voltage.
//   - progressChan: Receives the fraction of candidates scored.
//
// Returns:
//   - []Result: One result per candidate, in candidate order.
//   - error: ctx.Err() if the search was interrupted.
func Search(ctx context.Context, candidates []circuit.LargePrimeModel, samples []int, v float64, progressChan chan<- analysis.ProgressUpdate) ([]Result, error) {
	results := make([]Result, len(candidates))
	var done atomic.Int64
	total := float64(len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range candidates {
		g.Go(func() error {
			results[i] = evaluate(gctx, m, samples, v)
			if progressChan != nil {
				update := analysis.ProgressUpdate{Value: float64(done.Add(1)) / total}
				select {
				case progressChan <- update:
				default:
				}
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Best returns the result with the highest mean accuracy. Ties keep the
// earlier candidate. ok is false when no candidate scored.
func Best(results []Result) (best Result, ok bool) {
	for _, r := range results {
		if r.Err != nil || r.Scored == 0 {
			continue
		}
		if !ok || r.MeanAccuracy > best.MeanAccuracy {
			best, ok = r, true
		}
	}
	return best, ok
}

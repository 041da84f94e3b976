package analysis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/agbru/primelab/internal/fit"
	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
)

const (
	// patternFrom and patternTo bound the walk-forward indices of the
	// error-pattern analysis.
	patternFrom = 10
	patternTo   = 100
	// backtestFrom is the first index every predictor is scored on.
	backtestFrom = 10
	// backtestSteps is the number of indices scored per predictor.
	backtestSteps = 100
	// plottedPredictors is the number of top-ranked accuracy curves drawn.
	plottedPredictors = 3
)

// patternMethods are the simple heuristics whose errors are modelled.
var patternMethods = []string{predict.NameGapMean, predict.NameGolden, predict.NameFrequency}

// ─────────────────────────────────────────────────────────────────────────────
// error-patterns
// ─────────────────────────────────────────────────────────────────────────────

type errorPatterns struct{}

func (errorPatterns) Name() string { return "error-patterns" }
func (errorPatterns) Description() string {
	return "Walk-forward errors of the simple heuristics and the curves that fit them"
}

func (a errorPatterns) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.Primes
	to := min(patternTo+1, len(ps))
	if err := need(a.Name(), "primes", len(ps), patternFrom+3); err != nil {
		return nil, err
	}

	rep := report.New(a.Name(), "Prediction Error Patterns")
	summary := rep.AddTable("methods", "method", "steps", "mean |error|", "max |error|", "error/prime correlation", "best curve", "formula", "R²")
	curves := rep.AddTable("curve fits", "method", "family", "formula", "R²")

	steps := make(map[string][]predict.Step, len(patternMethods))
	for k, name := range patternMethods {
		p, err := env.Predictors.Get(name)
		if err != nil {
			return nil, err
		}
		res, err := predict.Backtest(ctx, p, ps, patternFrom, to)
		if err != nil {
			return nil, err
		}
		steps[name] = res.Steps

		x := make([]float64, len(res.Steps))
		absErr := make([]float64, len(res.Steps))
		signed := make([]float64, len(res.Steps))
		for i, st := range res.Steps {
			x[i] = float64(st.Actual)
			signed[i] = float64(st.Error)
			absErr[i] = math.Abs(signed[i])
		}
		corr, err := fit.Pearson(x, signed)
		if err != nil {
			return nil, errors.Join(ErrInsufficientData, err)
		}
		best, all, err := fit.BestCurve(x, absErr)
		if err != nil {
			return nil, errors.Join(ErrInsufficientData, err)
		}
		for _, c := range all {
			curves.AddRow(name, string(c.Kind), c.String(), c.R2)
		}
		stats, _ := fit.Summary(absErr)
		summary.AddRow(name, res.Evaluated, stats.Mean, stats.Max, corr, string(best.Kind), best.String(), best.R2)
		rep.AddMetric(name+" mean |error|", stats.Mean, "")
		rep.AddSeries(name, "prime", "error", x, signed)
		reporter(float64(k+1) / float64(len(patternMethods)))
	}

	tbl := rep.AddTable("errors", "index", "prime", predict.NameGapMean, predict.NameGolden, predict.NameFrequency)
	base := steps[patternMethods[0]]
	for i, st := range base {
		row := []any{st.Index, st.Actual}
		for _, name := range patternMethods {
			if i < len(steps[name]) {
				row = append(row, steps[name][i].Error)
			}
		}
		tbl.AddRow(row...)
	}
	rep.AddMetric("steps", float64(len(base)), "")
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// prediction
// ─────────────────────────────────────────────────────────────────────────────

type predictionComparison struct{}

func (predictionComparison) Name() string { return "prediction" }
func (predictionComparison) Description() string {
	return "Backtest and rank every registered next-prime predictor"
}

func (a predictionComparison) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.Primes
	if err := need(a.Name(), "primes", len(ps), backtestFrom+2); err != nil {
		return nil, err
	}
	to := min(len(ps), backtestFrom+backtestSteps)
	names := env.Predictors.List()

	rep := report.New(a.Name(), "Next-Prime Predictor Comparison")
	next := rep.AddTable("next prime", "method", "raw", "predicted", "actual", "accuracy", "confidence")
	last := ps[len(ps)-1]
	actual := primes.NextPrime(last)

	var results []predict.BacktestResult
	for k, name := range names {
		p, err := env.Predictors.Get(name)
		if err != nil {
			return nil, err
		}
		res, err := predict.Backtest(ctx, p, ps, backtestFrom, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rep.Notef("%s failed: %v", name, err)
			continue
		}
		results = append(results, res)

		pred, err := p.Predict(ctx, ps)
		switch {
		case err == nil:
			next.AddRow(name, pred.Raw, pred.Prime, actual, predict.Accuracy(float64(pred.Prime), float64(actual)), pred.Confidence)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			rep.Notef("%s cannot predict past %d: %v", name, last, err)
		}
		reporter(float64(k+1) / float64(len(names)))
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s: every predictor failed: %w", a.Name(), ErrInsufficientData)
	}

	slices.SortStableFunc(results, func(x, y predict.BacktestResult) int {
		return cmp.Compare(y.MeanAccuracy, x.MeanAccuracy)
	})
	tbl := rep.AddTable("ranking", "rank", "method", "evaluated", "skipped", "hits", "hit rate", "mean accuracy", "mean |error|")
	for i, r := range results {
		tbl.AddRow(i+1, r.Predictor, r.Evaluated, r.Skipped, r.Hits, r.HitRate, r.MeanAccuracy, r.MeanAbsError)
	}
	for _, r := range results[:min(plottedPredictors, len(results))] {
		x := make([]float64, len(r.Steps))
		y := make([]float64, len(r.Steps))
		for i, st := range r.Steps {
			x[i] = float64(st.Actual)
			y[i] = st.Accuracy
		}
		rep.AddSeries(r.Predictor, "prime", "accuracy (%)", x, y)
	}

	rep.AddMetric("predictors", float64(len(results)), "")
	rep.AddMetric("backtest steps", float64(to-backtestFrom), "")
	rep.AddMetric("best mean accuracy", results[0].MeanAccuracy, "%")
	rep.AddMetric("best hit rate", bestHitRate(results), "")
	rep.Notef("best predictor: %s", results[0].Predictor)
	return rep, nil
}

func bestHitRate(rs []predict.BacktestResult) float64 {
	var best float64
	for _, r := range rs {
		best = math.Max(best, r.HitRate)
	}
	return best
}

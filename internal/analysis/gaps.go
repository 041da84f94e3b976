package analysis

import (
	"context"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/fit"
	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
)

const (
	gapFrom  = 7
	gapLimit = 1000
	// minGap is the floor of the circuit gap estimate.
	minGap = 2.0
	// gapWeight scales the combined circuit differences.
	gapWeight = 0.5
)

// CircuitGap estimates the gap between consecutive primes p1 < p2 from the
// differences of their circuits at voltage v:
//
//	0.5·(ΔE_total·1000 + Δf·10 + Δ|Z|·5), at least 2.
func CircuitGap(p1, p2, v float64) (float64, error) {
	s1, err := circuit.Simulate(p1, v)
	if err != nil {
		return 0, err
	}
	s2, err := circuit.Simulate(p2, v)
	if err != nil {
		return 0, err
	}
	dE := s2.ETotal - s1.ETotal
	dF := s2.Params.Frequency - s1.Params.Frequency
	dZ := s2.Impedance.Magnitude - s1.Impedance.Magnitude
	est := gapWeight * (dE*1000 + dF*10 + dZ*5)
	return math.Max(minGap, est), nil
}

type gapAnalysis struct{}

func (gapAnalysis) Name() string { return "gaps" }
func (gapAnalysis) Description() string {
	return "Prime-gap statistics and the circuit gap estimate"
}

func (a gapAnalysis) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.PrimesBetween(gapFrom, gapLimit)
	if err := need(a.Name(), "primes >= 7", len(ps), 4); err != nil {
		return nil, err
	}
	v := env.Voltages[0]
	rep := report.New(a.Name(), "Prime Gaps")
	pairs := rep.AddTable("pairs", "prime", "next", "gap", "estimate", "accuracy")

	intGaps := primes.Gaps(ps)
	n := len(intGaps)
	x := make([]float64, n)
	gaps := make([]float64, n)
	est := make([]float64, n)
	acc := make([]float64, n)
	byGap := make(map[int][]float64)
	progress := NewStepper(reporter, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p1, p2 := ps[i], ps[i+1]
		e, err := CircuitGap(float64(p1), float64(p2), v)
		if err != nil {
			return nil, err
		}
		g := intGaps[i]
		x[i], gaps[i], est[i] = float64(p1), float64(g), e
		acc[i] = predict.Accuracy(e, float64(g))
		byGap[g] = append(byGap[g], acc[i])
		pairs.AddRow(p1, p2, g, e, acc[i])
		progress.Step(i)
	}

	mean, sd := stat.PopMeanStdDev(gaps, nil)
	gapCorr, err := fit.Pearson(x, gaps)
	if err != nil {
		return nil, errors.Join(ErrInsufficientData, err)
	}
	accCorr, err := fit.Pearson(x, acc)
	if err != nil {
		return nil, errors.Join(ErrInsufficientData, err)
	}
	rep.AddMetric("pairs", float64(n), "")
	rep.AddMetric("mean gap", mean, "")
	rep.AddMetric("gap std dev", sd, "")
	rep.AddMetric("max gap", slices.Max(gaps), "")
	rep.AddMetric("mean estimate accuracy", stat.Mean(acc, nil), "%")
	rep.AddMetric("gap/prime correlation", gapCorr, "")
	rep.AddMetric("accuracy/prime correlation", accCorr, "")
	rep.AddMetric("dominant gap period", predict.DominantPeriod(gaps), "pairs")
	rep.AddMetric("mean gap / ln p", mean/math.Log(float64(ps[len(ps)/2])), "")

	dist := rep.AddTable("gap distribution", "gap", "count", "share", "mean accuracy")
	keys := make([]int, 0, len(byGap))
	for g := range byGap {
		keys = append(keys, g)
	}
	slices.Sort(keys)
	for _, g := range keys {
		accs := byGap[g]
		dist.AddRow(g, len(accs), float64(len(accs))/float64(n), stat.Mean(accs, nil))
	}

	floored := 0
	for _, e := range est {
		if e == minGap {
			floored++
		}
	}
	rep.AddMetric("estimates at floor", float64(floored), "")
	switch {
	case floored == n:
		rep.Notef("every circuit estimate sits at the floor of %g: the energy term dominates and is negative", minGap)
	case floored > 0:
		rep.Notef("%d of %d circuit estimates sit at the floor of %g", floored, n, minGap)
	}
	rep.AddSeries("gap", "prime", "gap", x, gaps)
	rep.AddSeries("circuit estimate", "prime", "gap", x, est)
	return rep, nil
}

package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/fit"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
)

const (
	// circuitLimit bounds the primes simulated at every voltage.
	circuitLimit = 200
	// largePrimeSpan is how far past the model threshold the adaptive
	// circuit is exercised.
	largePrimeSpan = 100
	// correctionLimit bounds the primes used to fit the correction factor.
	correctionLimit = 1000
	// correctionFrom skips the smallest primes, where the first-order
	// correction is poorest.
	correctionFrom = 5
)

// relErr is 100·|estimate − p|/p.
func relErr(estimate, p float64) float64 {
	return math.Abs(estimate-p) / p * 100
}

// ─────────────────────────────────────────────────────────────────────────────
// circuit
// ─────────────────────────────────────────────────────────────────────────────

type circuitAnalysis struct{}

func (circuitAnalysis) Name() string { return "circuit" }
func (circuitAnalysis) Description() string {
	return "RLC simulation per prime and voltage, recovery with static and dynamic correction"
}

func (a circuitAnalysis) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.PrimesBetween(2, circuitLimit)
	if err := need(a.Name(), "primes", len(ps), 1); err != nil {
		return nil, err
	}
	rep := report.New(a.Name(), "Prime RLC Circuit")
	tbl := rep.AddTable("simulations",
		"prime", "voltage", "|Z|", "phase", "|I|", "E total", "E quantum", "raw", "static", "dynamic", "static err %", "dynamic err %")

	var (
		staticErrs, dynErrs []float64
		maxSpread           float64
		xs, rawRatio, dyn   []float64
	)
	progress := NewStepper(reporter, len(ps))
	for i, p := range ps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp := float64(p)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range env.Voltages {
			sim, err := circuit.Simulate(fp, v)
			if err != nil {
				return nil, err
			}
			raw, err := circuit.Recover(sim)
			if err != nil {
				rep.Notef("p=%d V=%g: %v", p, v, err)
				continue
			}
			st := circuit.Correct(circuit.DefaultStatic, fp, raw)
			dy := circuit.Correct(circuit.DefaultDynamic, fp, raw)
			se, de := relErr(st, fp), relErr(dy, fp)
			tbl.AddRow(p, v, sim.Impedance.Magnitude, sim.Impedance.Phase, sim.CurrentMagnitude(),
				sim.ETotal, sim.EQuantum, raw, st, dy, se, de)
			staticErrs = append(staticErrs, se)
			dynErrs = append(dynErrs, de)
			lo, hi = math.Min(lo, raw), math.Max(hi, raw)
		}
		if hi >= lo {
			maxSpread = math.Max(maxSpread, hi-lo)
			raw, corrected, _ := circuit.Estimate(env.Corrector, fp, env.Voltages[0])
			xs = append(xs, fp)
			rawRatio = append(rawRatio, raw/fp)
			dyn = append(dyn, corrected/fp)
		}
		progress.Step(i)
	}
	if len(dynErrs) == 0 {
		return nil, fmt.Errorf("%s: no recoverable simulation: %w", a.Name(), ErrInsufficientData)
	}

	rep.AddMetric("simulations", float64(len(dynErrs)), "")
	rep.AddMetric("mean static error", floats.Sum(staticErrs)/float64(len(staticErrs)), "%")
	rep.AddMetric("mean dynamic error", floats.Sum(dynErrs)/float64(len(dynErrs)), "%")
	rep.AddMetric("max dynamic error", floats.Max(dynErrs), "%")
	rep.AddMetric("max raw spread across voltages", maxSpread, "")
	rep.AddSeries("raw/p", "prime", "ratio", xs, rawRatio)
	rep.AddSeries(env.Corrector.Name()+" corrected/p", "prime", "ratio", xs, dyn)
	rep.Notef("correction model in use: %s", env.Corrector.Name())
	if maxSpread < 1e-6 {
		rep.Notef("recovery is independent of the applied voltage")
	}

	if err := a.largePrimes(ctx, rep, env); err != nil {
		return nil, err
	}
	return rep, nil
}

// largePrimes exercises the adaptive model just above its threshold,
// scoring each extrapolation against the true next prime.
func (a circuitAnalysis) largePrimes(ctx context.Context, rep *report.Report, env *Env) error {
	m := env.LargePrime
	from := int(m.Threshold) + 1
	ps := env.PrimesBetween(from, from+largePrimeSpan)
	if len(ps) == 0 {
		return nil
	}
	tbl := rep.AddTable("large primes", "prime", "adaptive k", "|Z|", "E total", "estimate", "next prime", "accuracy")
	var accSum float64
	for _, p := range ps {
		if err := ctx.Err(); err != nil {
			return err
		}
		est, sim, err := m.Extrapolate(float64(p), env.Voltages[0])
		if err != nil {
			return err
		}
		next := primes.NextPrime(p)
		acc := math.Max(0, 100-relErr(est, float64(next)))
		accSum += acc
		tbl.AddRow(p, sim.AdaptiveK, sim.Impedance.Magnitude, sim.ETotal, est, next, acc)
	}
	rep.AddMetric("large-prime mean accuracy", accSum/float64(len(ps)), "%")
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// correction-fit
// ─────────────────────────────────────────────────────────────────────────────

type correctionFit struct{}

func (correctionFit) Name() string { return "correction-fit" }
func (correctionFit) Description() string {
	return "Optimal correction factor p/raw and its reciprocal fit A/p + B"
}

func (a correctionFit) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.PrimesBetween(correctionFrom, correctionLimit)
	if err := need(a.Name(), "primes >= 5", len(ps), 3); err != nil {
		return nil, err
	}
	v := env.Voltages[0]
	rep := report.New(a.Name(), "Correction Factor Fit")
	tbl := rep.AddTable("factors", "prime", "raw", "optimal factor", "dynamic factor", "static factor", "dynamic residual")

	xs := make([]float64, 0, len(ps))
	ys := make([]float64, 0, len(ps))
	var dynRes, staticRes []float64
	progress := NewStepper(reporter, len(ps))
	for i, p := range ps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp := float64(p)
		sim, err := circuit.Simulate(fp, v)
		if err != nil {
			return nil, err
		}
		raw, err := circuit.Recover(sim)
		if err != nil {
			continue
		}
		opt := circuit.OptimalFactor(fp, raw)
		df := circuit.DefaultDynamic.Factor(fp)
		tbl.AddRow(p, raw, opt, df, circuit.DefaultStatic.Value, opt-df)
		xs = append(xs, fp)
		ys = append(ys, opt)
		dynRes = append(dynRes, math.Abs(opt-df))
		staticRes = append(staticRes, math.Abs(opt-circuit.DefaultStatic.Value))
		progress.Step(i)
	}

	recip, err := fit.FitCurve(fit.CurveReciprocal, xs, ys)
	if err != nil {
		return nil, errors.Join(ErrInsufficientData, err)
	}
	best, all, err := fit.BestCurve(xs, ys)
	if err != nil {
		return nil, errors.Join(ErrInsufficientData, err)
	}

	rep.AddMetric("primes", float64(len(xs)), "")
	rep.AddMetric("fitted A", recip.A, "")
	rep.AddMetric("fitted B", recip.B, "")
	rep.AddMetric("fit R²", recip.R2, "")
	rep.AddMetric("dynamic A", circuit.DefaultDynamic.A, "")
	rep.AddMetric("dynamic B", circuit.DefaultDynamic.B, "")
	rep.AddMetric("mean |residual| dynamic", floats.Sum(dynRes)/float64(len(dynRes)), "")
	rep.AddMetric("mean |residual| static", floats.Sum(staticRes)/float64(len(staticRes)), "")

	curves := rep.AddTable("curve families", "family", "formula", "R²")
	for _, c := range all {
		curves.AddRow(string(c.Kind), c.String(), c.R2)
	}
	rep.Notef("best family: %s (%s, R² %.6f)", best.Kind, best, best.R2)

	fitted := make([]float64, len(xs))
	for i, x := range xs {
		fitted[i] = recip.Eval(x)
	}
	rep.AddSeries("optimal p/raw", "prime", "factor", xs, ys)
	rep.AddSeries("A/p + B", "prime", "factor", xs, fitted)
	return rep, nil
}

package analysis

import (
	"context"
	"errors"
	"math"

	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/zeta"
)

const (
	// scanStep is the sampling step of Hardy's Z in zero scans.
	scanStep = 0.05
	// scanStart is the lower end of zero scans, below the first zero.
	scanStart = 10.0
	// verifyHalfWidth is the bracket half-width used to re-locate zeros.
	verifyHalfWidth = 0.25
	// nextZeroWindow is how far past the last reference zero to look for
	// the next one.
	nextZeroWindow = 8.0
)

// ─────────────────────────────────────────────────────────────────────────────
// zeta-correlation
// ─────────────────────────────────────────────────────────────────────────────

type zetaCorrelation struct{}

func (zetaCorrelation) Name() string { return "zeta-correlation" }
func (zetaCorrelation) Description() string {
	return "Nearest prime frequency to each zeta-zero frequency t/2π"
}

func (a zetaCorrelation) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	zeros := env.Dataset.Zeros()
	corrs, err := zeta.Correlate(zeros, env.Primes)
	if err != nil {
		return nil, errors.Join(ErrInsufficientData, err)
	}
	reporter(0.5)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := report.New(a.Name(), "Zeta Zero ↔ Prime Frequency Correlation")
	tbl := rep.AddTable("correlations", "zero", "zero frequency", "prime", "prime frequency", "distance", "ratio", "strength")
	idx := make([]float64, len(corrs))
	dist := make([]float64, len(corrs))
	zf := make([]float64, len(corrs))
	pf := make([]float64, len(corrs))
	for i, c := range corrs {
		tbl.AddRow(c.Zero, c.ZeroFrequency, c.Prime, c.PrimeFrequency, c.Distance, c.Ratio, c.Strength)
		idx[i] = float64(i + 1)
		dist[i] = c.Distance
		zf[i] = c.ZeroFrequency
		pf[i] = c.PrimeFrequency
	}

	support := zeta.Support(corrs)
	zeroFreqs := zeta.Frequencies(zeros)
	zeroDensity := zeta.Density(zeroFreqs)

	// Prime frequencies over the same frequency band as the zeros.
	lo := int(math.Ceil(primes.FromFrequency(zeroFreqs[0])))
	hi := int(math.Floor(primes.FromFrequency(zeroFreqs[len(zeroFreqs)-1])))
	band := env.PrimesBetween(lo, hi)
	bandFreqs := make([]float64, len(band))
	for i, p := range band {
		bandFreqs[i] = primes.Frequency(float64(p))
	}
	primeDensity := zeta.Density(bandFreqs)

	rep.AddMetric("zeros", float64(len(corrs)), "")
	rep.AddMetric("mean strength", support.MeanStrength, "")
	rep.AddMetric("strong correlations", float64(support.StrongCount), "")
	rep.AddMetric("strong fraction", support.StrongFraction, "")
	rep.AddMetric("support score", support.Score, "")
	rep.AddMetric("zero frequency density", zeroDensity, "per Hz")
	rep.AddMetric("prime frequency density", primeDensity, "per Hz")
	if zeroDensity > 0 {
		rep.AddMetric("density ratio", primeDensity/zeroDensity, "")
	}
	rep.AddMetric("sync points", float64(len(predict.SyncPoints(env.Primes, zeros))), "")

	rep.AddSeries("zero frequency", "zero index", "frequency (Hz)", idx, zf)
	rep.AddSeries("nearest prime frequency", "zero index", "frequency (Hz)", idx, pf)
	rep.AddSeries("distance", "zero index", "frequency (Hz)", idx, dist)
	if len(band) < 2 {
		rep.Notef("limit %d leaves fewer than two primes in the zero band [%d, %d]", env.Limit, lo, hi)
	}
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// zeta-gaps
// ─────────────────────────────────────────────────────────────────────────────

type zetaGaps struct{}

func (zetaGaps) Name() string { return "zeta-gaps" }
func (zetaGaps) Description() string {
	return "Zero gaps against prime gaps/π and next-zero predictions"
}

func (a zetaGaps) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	zeros := env.Dataset.Zeros()
	small := env.Dataset.Primes()
	stats, err := zeta.GapCorrelation(zeros, small)
	if err != nil {
		return nil, errors.Join(ErrInsufficientData, err)
	}
	reporter(0.2)

	rep := report.New(a.Name(), "Zeta Zero Gaps")
	rep.AddMetric("pairs", float64(stats.Pairs), "")
	rep.AddMetric("gap correlation", stats.Correlation, "")
	rep.AddMetric("mean zero gap", stats.MeanZeroGap, "")
	rep.AddMetric("mean prime gap/π", stats.MeanScaledPrime, "")
	rep.AddMetric("mean absolute difference", stats.MeanAbsoluteDiff, "")

	idx := make([]float64, stats.Pairs)
	zg := make([]float64, stats.Pairs)
	pg := make([]float64, stats.Pairs)
	for i := 0; i < stats.Pairs; i++ {
		idx[i] = float64(i + 1)
		zg[i] = zeros[i+1] - zeros[i]
		pg[i] = float64(small[i+1]-small[i]) / math.Pi
	}
	rep.AddSeries("zero gap", "index", "gap", idx, zg)
	rep.AddSeries("prime gap/π", "index", "gap", idx, pg)

	// The true next zero, located by Riemann–Siegel, scores the predictions.
	lastZero := zeros[len(zeros)-1]
	next, err := zeta.ScanZeros(ctx, lastZero+scanStep, lastZero+nextZeroWindow, scanStep)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	actual := math.NaN()
	if len(next) > 0 {
		actual = next[0]
		rep.AddMetric("next zero (computed)", actual, "")
	} else {
		rep.Notef("no zero found in (%.6f, %.6f]", lastZero, lastZero+nextZeroWindow)
	}
	reporter(0.7)

	tbl := rep.AddTable("next zero predictions", "method", "value", "gap", "confidence", "error")
	for _, predictNext := range []func([]float64) (zeta.Prediction, error){
		zeta.PredictNext, zeta.PredictNextScaled, zeta.PredictNextGrowth,
	} {
		p, err := predictNext(zeros)
		if err != nil {
			rep.Notef("prediction skipped: %v", err)
			continue
		}
		tbl.AddRow(p.Method, p.Value, p.Gap, p.Confidence, p.Value-actual)
	}
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// zeta-verify
// ─────────────────────────────────────────────────────────────────────────────

type zetaVerify struct{}

func (zetaVerify) Name() string { return "zeta-verify" }
func (zetaVerify) Description() string {
	return "Riemann–Siegel re-location of the reference zeros and a zero scan"
}

func (a zetaVerify) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	zeros := env.Dataset.Zeros()
	if err := need(a.Name(), "reference zeros", len(zeros), 1); err != nil {
		return nil, err
	}
	rep := report.New(a.Name(), "Riemann–Siegel Zero Verification")

	tbl := rep.AddTable("verification", "reference", "computed", "deviation", "found")
	var maxDev, sumDev float64
	found := 0
	for _, v := range zeta.Verify(zeros, verifyHalfWidth) {
		tbl.AddRow(v.Reference, v.Computed, v.Deviation, v.Found)
		if v.Found {
			found++
			sumDev += v.Deviation
			maxDev = math.Max(maxDev, v.Deviation)
		}
	}
	reporter(0.3)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	upper := zeros[len(zeros)-1] + 5
	scanned, err := zeta.ScanZeros(ctx, scanStart, upper, scanStep)
	if err != nil {
		return nil, err
	}
	reporter(0.8)

	rep.AddMetric("reference zeros", float64(len(zeros)), "")
	rep.AddMetric("re-located", float64(found), "")
	rep.AddMetric("max deviation", maxDev, "")
	if found > 0 {
		rep.AddMetric("mean deviation", sumDev/float64(found), "")
	}
	rep.AddMetric("zeros found by scan", float64(len(scanned)), "")
	rep.AddMetric("scan upper bound", upper, "")

	var ts, zs []float64
	for t := scanStart; t <= upper; t += 2 * scanStep {
		ts = append(ts, t)
		zs = append(zs, zeta.HardyZ(t))
	}
	rep.AddSeries("Z(t)", "t", "Z(t)", ts, zs)

	beyond := 0
	for _, z := range scanned {
		if z > zeros[len(zeros)-1]+verifyHalfWidth {
			beyond++
		}
	}
	if beyond > 0 {
		rep.Notef("%d zero(s) found above the last reference zero", beyond)
	}
	return rep, nil
}

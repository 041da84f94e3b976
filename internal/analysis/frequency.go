package analysis

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/report"
)

const (
	// maxTableRows caps per-prime tables; CSV artifacts share the cap.
	maxTableRows = 1000
	// maxSeriesPoints caps plotted points per series.
	maxSeriesPoints = 500
)

// stride returns the step that keeps at most limit of n items.
func stride(n, limit int) int {
	if n <= limit {
		return 1
	}
	return (n + limit - 1) / limit
}

// ─────────────────────────────────────────────────────────────────────────────
// frequency-law
// ─────────────────────────────────────────────────────────────────────────────

type frequencyLaw struct{}

func (frequencyLaw) Name() string { return "frequency-law" }
func (frequencyLaw) Description() string {
	return "Prime frequency f = p/π and the π·f round trip"
}

func (a frequencyLaw) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.Primes
	if err := need(a.Name(), "primes", len(ps), 2); err != nil {
		return nil, err
	}
	rep := report.New(a.Name(), "Prime Frequency Law")
	tbl := rep.AddTable("frequencies", "prime", "frequency", "recovered", "deviation")

	var (
		maxDev float64
		sumDev float64
		step   = stride(len(ps), maxSeriesPoints)
		xs, ys []float64
	)
	progress := NewStepper(reporter, len(ps))
	for i, p := range ps {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		f := primes.Frequency(float64(p))
		back := primes.FromFrequency(f)
		dev := math.Abs(back - float64(p))
		maxDev = math.Max(maxDev, dev)
		sumDev += dev
		if i < maxTableRows {
			tbl.AddRow(p, f, back, dev)
		}
		if i%step == 0 {
			xs = append(xs, float64(p))
			ys = append(ys, f)
		}
		progress.Step(i)
	}

	n := len(ps)
	spacing := (primes.Frequency(float64(ps[n-1])) - primes.Frequency(float64(ps[0]))) / float64(n-1)
	rep.AddMetric("primes", float64(n), "")
	rep.AddMetric("max round-trip deviation", maxDev, "")
	rep.AddMetric("mean round-trip deviation", sumDev/float64(n), "")
	rep.AddMetric("mean frequency spacing", spacing, "Hz")
	rep.AddMetric("frequency of largest prime", primes.Frequency(float64(ps[n-1])), "Hz")
	rep.AddSeries("f = p/π", "prime", "frequency (Hz)", xs, ys)
	if n > maxTableRows {
		rep.Notef("table shows the first %d of %d primes", maxTableRows, n)
	}
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// golden-ratio
// ─────────────────────────────────────────────────────────────────────────────

const (
	// goldenAngle is the reference angle, in degrees, of the resonance model.
	goldenAngle = 37.5
	// goldenLimit bounds the primes examined.
	goldenLimit = 500
	// goldenWeight is the weight of p/π in the unified frequency.
	goldenWeight = 0.7
)

type goldenRatio struct{}

func (goldenRatio) Name() string { return "golden-ratio" }
func (goldenRatio) Description() string {
	return "Two-squares angles and the golden frequency √p/(2πφ)"
}

// primeAngle returns the angle, in degrees, of the Gaussian-integer
// representation of p: atan2(b, a) for p = a² + b² with a <= b, and 45°
// for primes with no such representation.
func primeAngle(p int) float64 {
	a, b, ok := primes.TwoSquares(p)
	if !ok {
		return 45
	}
	return math.Atan2(float64(b), float64(a)) * 180 / math.Pi
}

// GoldenFrequency is √p/(2πφ).
func GoldenFrequency(p float64) float64 {
	return math.Sqrt(p) / (2 * math.Pi * predict.Phi)
}

func primeClass(p int) string {
	switch {
	case p == 2:
		return "2"
	case p%4 == 1:
		return "4k+1"
	default:
		return "4k+3"
	}
}

func (a goldenRatio) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.PrimesBetween(2, goldenLimit)
	if err := need(a.Name(), "primes", len(ps), 3); err != nil {
		return nil, err
	}
	rep := report.New(a.Name(), "Golden Ratio Resonance")
	tbl := rep.AddTable("angles", "prime", "class", "angle", "deviation", "golden frequency", "p/π", "ratio", "unified frequency")

	var (
		sqrtP, angles, ratios, devs []float64
		angles41, angles43          []float64
	)
	progress := NewStepper(reporter, len(ps))
	for i, p := range ps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp := float64(p)
		angle := primeAngle(p)
		golden := GoldenFrequency(fp)
		freq := primes.Frequency(fp)
		ratio := freq / golden
		dev := math.Abs(angle - goldenAngle)
		unified := goldenWeight*freq + (1-goldenWeight)*golden
		tbl.AddRow(p, primeClass(p), angle, dev, golden, freq, ratio, unified)

		sqrtP = append(sqrtP, math.Sqrt(fp))
		angles = append(angles, angle)
		ratios = append(ratios, ratio)
		devs = append(devs, dev)
		switch primeClass(p) {
		case "4k+1":
			angles41 = append(angles41, angle)
		case "4k+3":
			angles43 = append(angles43, angle)
		}
		progress.Step(i)
	}

	meanRatio, sdRatio := stat.PopMeanStdDev(ratios, nil)
	rep.AddMetric("primes", float64(len(ps)), "")
	rep.AddMetric("mean frequency ratio", meanRatio, "")
	rep.AddMetric("frequency ratio std dev", sdRatio, "")
	rep.AddMetric("mean angle deviation", stat.Mean(devs, nil), "deg")
	if len(angles41) > 0 {
		rep.AddMetric("mean angle 4k+1", stat.Mean(angles41, nil), "deg")
	}
	if len(angles43) > 0 {
		mean43, sd43 := stat.PopMeanStdDev(angles43, nil)
		rep.AddMetric("mean angle 4k+3", mean43, "deg")
		rep.AddMetric("angle std dev 4k+3", sd43, "deg")
		if sd43 < 0.1 {
			rep.Notef("every 4k+3 prime sits at %.1f°; the angle is a property of the representation, not of the prime", mean43)
		}
	}
	rep.Notef("the ratio (p/π)/(√p/(2πφ)) = 2φ√p grows without bound, so the two laws cannot agree beyond small p")
	rep.AddSeries("angle", "√p", "angle (deg)", sqrtP, angles)
	return rep, nil
}

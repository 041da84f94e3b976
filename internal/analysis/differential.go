package analysis

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/report"
)

const (
	// differentialLimit bounds the primes compared by differential-current.
	differentialLimit = 47
	// differentialTime is the instant of the comparison and the divisor of
	// the simple i = Q/t method.
	differentialTime = 1.0
)

type differentialCurrent struct{}

func (differentialCurrent) Name() string { return "differential-current" }
func (differentialCurrent) Description() string {
	return "Current as i = dQ/dt against i = Q/t: RMS current and time-averaged energies"
}

func (a differentialCurrent) RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error) {
	ps := env.PrimesBetween(2, differentialLimit)
	if err := need(a.Name(), "primes", len(ps), 2); err != nil {
		return nil, err
	}
	osc := circuit.DefaultOscillator
	rep := report.New(a.Name(), "Differential Current")
	tbl := rep.AddTable("comparison",
		"prime", "|Z|", "Q0", "i(t)", "I rms", "Q0/t", "current ratio",
		"E(t)", "<E>", "E simple", "energy ratio", "<E> ratio")

	n := len(ps)
	x := make([]float64, n)
	curRatio := make([]float64, n)
	rmsRatio := make([]float64, n)
	eRatio := make([]float64, n)
	avgRatio := make([]float64, n)
	rms := make([]float64, n)
	progress := NewStepper(reporter, n)
	for i, p := range ps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := osc.Differential(float64(p), differentialTime)
		if err != nil {
			return nil, err
		}
		x[i] = float64(p)
		curRatio[i] = d.CurrentRatio()
		rmsRatio[i] = d.RMSCurrent / d.SimpleCurrent
		eRatio[i] = d.EnergyRatio()
		avgRatio[i] = d.AverageEnergyRatio()
		rms[i] = d.RMSCurrent
		tbl.AddRow(p, d.Impedance, d.Q0, d.Current, d.RMSCurrent, d.SimpleCurrent, curRatio[i],
			d.ETotal, d.ETotalAverage, d.SimpleETotal, eRatio[i], avgRatio[i])
		progress.Step(i)
	}

	meanCur, sdCur := stat.MeanStdDev(curRatio, nil)
	meanE, sdE := stat.MeanStdDev(eRatio, nil)
	rep.AddMetric("primes", float64(n), "")
	rep.AddMetric("mean current ratio", meanCur, "")
	rep.AddMetric("current ratio std dev", sdCur, "")
	rep.AddMetric("max current ratio", floats.Max(curRatio), "")
	rep.AddMetric("max current ratio prime", x[floats.MaxIdx(curRatio)], "")
	rep.AddMetric("min current ratio", floats.Min(curRatio), "")
	rep.AddMetric("mean RMS/simple ratio", stat.Mean(rmsRatio, nil), "")
	rep.AddMetric("mean energy ratio", meanE, "")
	rep.AddMetric("energy ratio std dev", sdE, "")
	rep.AddMetric("mean average-energy ratio", stat.Mean(avgRatio, nil), "")
	rep.AddSeries("current ratio", "prime", "|i(t)| / (Q0/t)", x, curRatio)
	rep.AddSeries("RMS current", "prime", "A", x, rms)
	rep.Notef("L = %g H, C = %g F, t = %g s; the simple method divides the charge amplitude by t", osc.L, osc.C, differentialTime)
	if r := floats.Min(avgRatio); r < 1 && !math.IsInf(r, 0) {
		rep.Notef("the simple method overstates the time-averaged energy for %d of %d primes", countBelow(avgRatio, 1), n)
	}
	return rep, nil
}

func countBelow(xs []float64, bound float64) int {
	n := 0
	for _, v := range xs {
		if v < bound {
			n++
		}
	}
	return n
}

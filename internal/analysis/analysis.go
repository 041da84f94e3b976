// Package analysis turns the numeric packages into named, repeatable
// experiments. Each analysis reads a shared Env, reports its progress, and
// returns a report.Report; nothing here prints to the terminal.
//
// Analyses are registered in a Registry and wrapped by a decorator that
// adds tracing, Prometheus metrics and debug logging around every run.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/refdata"
	"github.com/agbru/primelab/internal/report"
)

// ErrInsufficientData is returned when the environment holds too few
// primes or zeros for an analysis.
var ErrInsufficientData = errors.New("insufficient data for analysis")

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "primelab_analysis_runs_total",
			Help: "The total number of analysis runs",
		},
		[]string{"analysis", "status"},
	)
	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "primelab_analysis_duration_seconds",
			Help: "The duration of analysis runs in seconds",
		},
		[]string{"analysis"},
	)
)

// Env is the read-only input shared by concurrently running analyses.
// Analyses must not modify its slices.
type Env struct {
	// Limit is the sieve bound Primes was built from.
	Limit int
	// Primes are all primes <= Limit, ascending.
	Primes []int
	// Dataset holds the reference zeta zeros and small primes.
	Dataset *refdata.Dataset
	// Voltages are the applied voltages for circuit analyses.
	Voltages []float64
	// Corrector is the selected circuit correction model.
	Corrector circuit.Corrector
	// LargePrime holds the (possibly calibrated) adaptive circuit model.
	LargePrime circuit.LargePrimeModel
	// Predictors is the predictor registry built from the fields above.
	Predictors *predict.Factory
}

// EnvOptions configures NewEnv. Zero values select defaults.
type EnvOptions struct {
	Limit      int
	Dataset    *refdata.Dataset
	Voltages   []float64
	Corrector  circuit.Corrector
	LargePrime circuit.LargePrimeModel
}

// DefaultVoltages are the applied voltages used when none are configured.
var DefaultVoltages = []float64{10, 12, 15}

// NewEnv sieves the primes up to opts.Limit and builds the predictor
// registry.
//
// Parameters:
//   - ctx: Context for cancelling the sieve.
//   - opts: The environment options.
//
// Returns:
//   - *Env: The populated environment.
//   - error: An error if the limit is invalid or ctx is done.
func NewEnv(ctx context.Context, opts EnvOptions) (*Env, error) {
	ps, err := primes.SieveContext(ctx, opts.Limit)
	if err != nil {
		return nil, err
	}
	env := &Env{
		Limit:      opts.Limit,
		Primes:     ps,
		Dataset:    opts.Dataset,
		Voltages:   slices.Clone(opts.Voltages),
		Corrector:  opts.Corrector,
		LargePrime: opts.LargePrime,
	}
	if env.Dataset == nil {
		env.Dataset = refdata.Default()
	}
	if len(env.Voltages) == 0 {
		env.Voltages = slices.Clone(DefaultVoltages)
	}
	if env.Corrector == nil {
		env.Corrector = circuit.DefaultDynamic
	}
	if env.LargePrime == (circuit.LargePrimeModel{}) {
		env.LargePrime = circuit.DefaultLargePrimeModel()
	}
	env.Predictors = predict.NewFactory(predict.Options{
		Zeros:      env.Dataset.Zeros(),
		Corrector:  env.Corrector,
		LargePrime: env.LargePrime,
		Voltage:    env.Voltages[0],
	})
	return env, nil
}

// PrimesBetween returns the primes of the environment in [lo, hi].
func (e *Env) PrimesBetween(lo, hi int) []int {
	i, _ := slices.BinarySearch(e.Primes, lo)
	j, found := slices.BinarySearch(e.Primes, hi)
	if found {
		j++
	}
	if i >= j {
		return nil
	}
	return e.Primes[i:j]
}

// need fails with ErrInsufficientData unless have >= want.
func need(name, what string, have, want int) error {
	if have < want {
		return fmt.Errorf("%s needs at least %d %s, have %d: %w", name, want, what, have, ErrInsufficientData)
	}
	return nil
}

// Analysis is a named experiment over an Env.
type Analysis interface {
	// Run executes the analysis. Progress is sent to progressChan, which
	// may be nil, tagged with index.
	//
	// Parameters:
	//   - ctx: The context for cancellation and deadlines.
	//   - progressChan: The channel for progress updates, or nil.
	//   - index: The identifier used in progress updates.
	//   - env: The shared, read-only input.
	//
	// Returns:
	//   - *report.Report: The analysis output.
	//   - error: An error if the analysis could not complete.
	Run(ctx context.Context, progressChan chan<- ProgressUpdate, index int, env *Env) (*report.Report, error)

	// RunWithObservers is Run with an explicit observer subject, which may
	// be nil.
	RunWithObservers(ctx context.Context, subject *ProgressSubject, index int, env *Env) (*report.Report, error)

	// Name returns the registry name, e.g. "zeta-gaps".
	Name() string

	// Description returns a one-line summary.
	Description() string
}

// coreAnalysis is the bare experiment wrapped by the decorator.
type coreAnalysis interface {
	RunCore(ctx context.Context, reporter ProgressReporter, env *Env) (*report.Report, error)
	Name() string
	Description() string
}

// instrumented decorates a coreAnalysis with tracing, metrics, logging and
// progress adaptation.
type instrumented struct {
	core coreAnalysis
}

// newAnalysis wraps core. It panics on a nil core.
func newAnalysis(core coreAnalysis) Analysis {
	if core == nil {
		panic("analysis: the core analysis cannot be nil")
	}
	return &instrumented{core: core}
}

func (a *instrumented) Name() string        { return a.core.Name() }
func (a *instrumented) Description() string { return a.core.Description() }

// Run adapts progressChan to an observer subject and delegates to
// RunWithObservers.
func (a *instrumented) Run(ctx context.Context, progressChan chan<- ProgressUpdate, index int, env *Env) (*report.Report, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return a.RunWithObservers(ctx, subject, index, env)
}

// RunWithObservers runs the core inside a span, records the outcome in
// the run counter and duration histogram, and reports completion.
func (a *instrumented) RunWithObservers(ctx context.Context, subject *ProgressSubject, index int, env *Env) (rep *report.Report, err error) {
	name := a.core.Name()
	ctx, span := otel.Tracer("primelab/analysis").Start(ctx, "analysis.Run")
	span.SetAttributes(attribute.String("analysis", name))
	if env != nil {
		span.SetAttributes(attribute.Int("limit", env.Limit))
	}
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		runsTotal.WithLabelValues(name, status).Inc()
		runDuration.WithLabelValues(name).Observe(duration)

		log.Debug().
			Str("analysis", name).
			Float64("duration", duration).
			Str("status", status).
			Msg("analysis completed")
	}()

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(index)
	}
	if env == nil {
		return nil, fmt.Errorf("%s: nil environment: %w", name, ErrInsufficientData)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep, err = a.core.RunCore(ctx, reporter, env)
	if err != nil {
		return nil, err
	}
	reporter(1.0)
	return rep, nil
}

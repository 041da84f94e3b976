// Package service exposes the primelab computations behind one interface
// shared by the HTTP server and the interactive REPL. It validates inputs,
// caches sieved environments per limit and converts domain results into the
// pkg/models documents.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/circuit"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/predict"
	"github.com/agbru/primelab/internal/primes"
	"github.com/agbru/primelab/internal/refdata"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/zeta"
	"github.com/agbru/primelab/pkg/models"
)

var (
	// ErrMaxLimitExceeded is returned when a request asks for a sieve bound
	// above the service maximum.
	ErrMaxLimitExceeded = errors.New("limit exceeds maximum allowed")
	// ErrUnknownPredictor is returned for an unregistered predictor name.
	ErrUnknownPredictor = errors.New("unknown predictor")
)

// DefaultPredictor is used when a prediction request names no method.
const DefaultPredictor = predict.NameEnsemble

// envCacheSize bounds the number of sieved environments kept in memory.
const envCacheSize = 8

// Service is the application boundary used by the server and the REPL.
type Service interface {
	// Primes lists the primes up to limit.
	Primes(ctx context.Context, limit int) (*models.PrimesResponse, error)
	// Features computes the circuit quantities of p at omega (ω = 2p when
	// omega is 0) and its nearest zero by frequency.
	Features(ctx context.Context, p int, omega float64) (*models.Features, error)
	// NearestZero finds the reference zero closest to value.
	NearestZero(ctx context.Context, value float64, mode string) (*models.NearestZero, error)
	// Predict guesses the prime after the largest prime up to limit and
	// scores the guess against the true successor.
	Predict(ctx context.Context, method string, limit int) (*models.Prediction, error)
	// RunAnalysis runs one registered analysis at limit.
	RunAnalysis(ctx context.Context, name string, limit int) (*report.Report, error)
	// Analyses describes the registered analyses.
	Analyses() []models.AnalysisInfo
	// Predictors lists the registered predictor names.
	Predictors() []string
}

// PrimeService implements Service on an analysis registry.
type PrimeService struct {
	registry *analysis.Registry
	base     analysis.EnvOptions
	maxLimit int

	mu    sync.Mutex
	envs  map[int]*analysis.Env
	order []int
}

// NewPrimeService creates a service.
//
// Parameters:
//   - registry: The analyses available to RunAnalysis.
//   - base: Environment options; Limit is replaced per request.
//   - maxLimit: The largest accepted limit. Zero means primes.MaxLimit.
//
// Returns:
//   - *PrimeService: The service.
func NewPrimeService(registry *analysis.Registry, base analysis.EnvOptions, maxLimit int) *PrimeService {
	if maxLimit <= 0 || maxLimit > primes.MaxLimit {
		maxLimit = primes.MaxLimit
	}
	return &PrimeService{
		registry: registry,
		base:     base,
		maxLimit: maxLimit,
		envs:     make(map[int]*analysis.Env),
	}
}

// MaxLimit returns the largest limit the service accepts.
func (s *PrimeService) MaxLimit() int { return s.maxLimit }

func (s *PrimeService) checkLimit(limit int) error {
	if limit < 2 {
		return apperrors.NewValidationError("limit", "must be at least 2", limit)
	}
	if limit > s.maxLimit {
		return fmt.Errorf("%w: %d > %d", ErrMaxLimitExceeded, limit, s.maxLimit)
	}
	return nil
}

// env returns the cached environment for limit, sieving it on a miss. The
// oldest entry is evicted once the cache is full.
func (s *PrimeService) env(ctx context.Context, limit int) (*analysis.Env, error) {
	if err := s.checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if e, ok := s.envs[limit]; ok {
		s.mu.Unlock()
		return e, nil
	}
	s.mu.Unlock()

	opts := s.base
	opts.Limit = limit
	e, err := analysis.NewEnv(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.envs[limit]; ok {
		return cached, nil
	}
	if len(s.order) >= envCacheSize {
		delete(s.envs, s.order[0])
		s.order = s.order[1:]
	}
	s.envs[limit] = e
	s.order = append(s.order, limit)
	return e, nil
}

// Primes implements Service.
func (s *PrimeService) Primes(ctx context.Context, limit int) (*models.PrimesResponse, error) {
	e, err := s.env(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &models.PrimesResponse{
		Limit:  limit,
		Count:  len(e.Primes),
		Primes: slices.Clone(e.Primes),
	}, nil
}

// Features implements Service. p does not have to be prime; IsPrime says
// whether it is.
func (s *PrimeService) Features(ctx context.Context, p int, omega float64) (*models.Features, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p < 2 {
		return nil, apperrors.NewValidationError("p", "must be at least 2", p)
	}
	if math.IsNaN(omega) || math.IsInf(omega, 0) || omega < 0 {
		return nil, apperrors.NewValidationError("omega", "must be a finite non-negative number", omega)
	}
	if omega == 0 {
		omega = 2 * float64(p)
	}

	prm, err := circuit.Params(float64(p))
	if err != nil {
		return nil, apperrors.NewValidationError("p", err.Error(), p)
	}
	imp, err := circuit.ImpedanceAt(float64(p), omega)
	if err != nil {
		return nil, apperrors.NewValidationError("omega", err.Error(), omega)
	}

	zeros := s.dataset().Zeros()
	freq := primes.Frequency(float64(p))
	m, err := zeta.Nearest(freq, zeta.Frequencies(zeros))
	if err != nil {
		return nil, err
	}

	return &models.Features{
		Prime:         p,
		IsPrime:       primes.IsPrime(p),
		Frequency:     freq,
		Resistance:    prm.R,
		Inductance:    prm.L,
		Capacitance:   prm.C,
		Omega:         imp.Omega,
		XL:            imp.XL,
		XC:            imp.XC,
		Reactance:     imp.X,
		Impedance:     imp.Magnitude,
		Phase:         imp.Phase,
		NearestZero:   zeros[m.Index],
		ZeroFrequency: m.Value,
		Distance:      m.Distance,
		Strength:      zeta.Strength(m.Distance),
	}, nil
}

// NearestZero implements Service. An empty mode means frequency mode.
func (s *PrimeService) NearestZero(ctx context.Context, value float64, mode string) (*models.NearestZero, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, apperrors.NewValidationError("value", "must be a finite number", value)
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = models.ModeFrequency
	}

	zeros := s.dataset().Zeros()
	var refs []float64
	switch mode {
	case models.ModeFrequency:
		refs = zeta.Frequencies(zeros)
	case models.ModeRaw:
		refs = zeros
	default:
		return nil, apperrors.NewValidationError("mode",
			fmt.Sprintf("must be %q or %q", models.ModeFrequency, models.ModeRaw), mode)
	}

	m, err := zeta.Nearest(value, refs)
	if err != nil {
		return nil, err
	}
	return &models.NearestZero{
		Query:    value,
		Mode:     mode,
		Index:    m.Index + 1,
		Zero:     zeros[m.Index],
		Value:    m.Value,
		Distance: m.Distance,
		Strength: zeta.Strength(m.Distance),
	}, nil
}

// Predict implements Service. An empty method selects DefaultPredictor.
func (s *PrimeService) Predict(ctx context.Context, method string, limit int) (*models.Prediction, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = DefaultPredictor
	}
	e, err := s.env(ctx, limit)
	if err != nil {
		return nil, err
	}
	if !e.Predictors.Has(method) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPredictor, method)
	}
	p, err := e.Predictors.Get(method)
	if err != nil {
		return nil, err
	}

	pred, err := p.Predict(ctx, e.Primes)
	if err != nil {
		if errors.Is(err, predict.ErrInsufficientData) {
			return nil, apperrors.NewValidationError("limit", "too few primes for "+method, limit)
		}
		return nil, err
	}

	last := e.Primes[len(e.Primes)-1]
	actual := primes.NextPrime(last)
	return &models.Prediction{
		Method:     pred.Method,
		Limit:      limit,
		Last:       last,
		Raw:        pred.Raw,
		Predicted:  pred.Prime,
		Confidence: pred.Confidence,
		Actual:     actual,
		Accuracy:   predict.Accuracy(float64(pred.Prime), float64(actual)),
		Hit:        pred.Prime == actual,
		Details:    pred.Details,
	}, nil
}

// RunAnalysis implements Service. Progress is discarded.
func (s *PrimeService) RunAnalysis(ctx context.Context, name string, limit int) (*report.Report, error) {
	a, err := s.registry.Get(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, err
	}
	e, err := s.env(ctx, limit)
	if err != nil {
		return nil, err
	}
	return a.RunWithObservers(ctx, analysis.NewProgressSubject(), 0, e)
}

// Analyses implements Service.
func (s *PrimeService) Analyses() []models.AnalysisInfo {
	names := s.registry.List()
	out := make([]models.AnalysisInfo, 0, len(names))
	for _, n := range names {
		a, err := s.registry.Get(n)
		if err != nil {
			continue
		}
		out = append(out, models.AnalysisInfo{Name: n, Description: a.Description()})
	}
	return out
}

// Predictors implements Service.
func (s *PrimeService) Predictors() []string {
	return predict.NewFactory(predict.Options{}).List()
}

func (s *PrimeService) dataset() *refdata.Dataset {
	if s.base.Dataset != nil {
		return s.base.Dataset
	}
	return refdata.Default()
}

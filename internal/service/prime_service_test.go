package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/agbru/primelab/internal/analysis"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/pkg/models"
)

func newTestService(maxLimit int) *PrimeService {
	return NewPrimeService(analysis.DefaultRegistry(), analysis.EnvOptions{}, maxLimit)
}

// TestNewPrimeService tests the constructor defaults.
func TestNewPrimeService(t *testing.T) {
	t.Parallel()
	svc := newTestService(0)
	if svc.MaxLimit() != 10_000_000 {
		t.Errorf("Expected default max limit 10000000, got %d", svc.MaxLimit())
	}
	svc = newTestService(500)
	if svc.MaxLimit() != 500 {
		t.Errorf("Expected max limit 500, got %d", svc.MaxLimit())
	}
}

// TestPrimes tests listing and limit validation.
func TestPrimes(t *testing.T) {
	t.Parallel()
	svc := newTestService(1000)
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		wantCount  int
		validation bool
		tooLarge   bool
	}{
		{"small", 30, 10, false, false},
		{"smallest", 2, 1, false, false},
		{"at max", 1000, 168, false, false},
		{"below minimum", 1, 0, true, false},
		{"negative", -5, 0, true, false},
		{"above max", 1001, 0, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp, err := svc.Primes(ctx, tc.limit)
			switch {
			case tc.validation:
				if !apperrors.IsValidationError(err) {
					t.Errorf("Expected ValidationError, got %v", err)
				}
			case tc.tooLarge:
				if !errors.Is(err, ErrMaxLimitExceeded) {
					t.Errorf("Expected ErrMaxLimitExceeded, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if resp.Count != tc.wantCount || len(resp.Primes) != tc.wantCount {
					t.Errorf("Expected %d primes, got count=%d len=%d", tc.wantCount, resp.Count, len(resp.Primes))
				}
			}
		})
	}
}

// TestPrimesReturnsCopy ensures callers cannot corrupt the cached sieve.
func TestPrimesReturnsCopy(t *testing.T) {
	t.Parallel()
	svc := newTestService(100)
	ctx := context.Background()

	first, err := svc.Primes(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	first.Primes[0] = 4
	second, err := svc.Primes(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	if second.Primes[0] != 2 {
		t.Errorf("Expected cached primes to be unchanged, got first prime %d", second.Primes[0])
	}
}

// TestEnvCacheEviction tests that the cache stays bounded.
func TestEnvCacheEviction(t *testing.T) {
	t.Parallel()
	svc := newTestService(100)
	ctx := context.Background()
	for limit := 2; limit < 2+envCacheSize+3; limit++ {
		if _, err := svc.Primes(ctx, limit); err != nil {
			t.Fatal(err)
		}
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.envs) != envCacheSize || len(svc.order) != envCacheSize {
		t.Errorf("Expected %d cached environments, got %d (order %d)", envCacheSize, len(svc.envs), len(svc.order))
	}
	if _, ok := svc.envs[2]; ok {
		t.Error("Expected the oldest limit to be evicted")
	}
}

// TestFeatures tests the circuit quantities and validation.
func TestFeatures(t *testing.T) {
	t.Parallel()
	svc := newTestService(0)
	ctx := context.Background()

	f, err := svc.Features(ctx, 7, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !f.IsPrime {
		t.Error("Expected 7 to be reported prime")
	}
	if f.Omega != 14 {
		t.Errorf("Expected default omega 14, got %v", f.Omega)
	}
	if math.Abs(f.Resistance-math.Sqrt(7)) > 1e-12 {
		t.Errorf("Expected R = sqrt(7), got %v", f.Resistance)
	}
	if math.Abs(f.Frequency-7/math.Pi) > 1e-12 {
		t.Errorf("Expected frequency 7/pi, got %v", f.Frequency)
	}
	if math.Abs(f.Impedance-math.Hypot(f.Resistance, f.Reactance)) > 1e-9 {
		t.Errorf("Expected |Z| = hypot(R, X), got %v", f.Impedance)
	}
	if f.Strength <= 0 || f.Strength > 1 {
		t.Errorf("Expected strength in (0, 1], got %v", f.Strength)
	}

	f, err = svc.Features(ctx, 8, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.IsPrime || f.Omega != 3 {
		t.Errorf("Expected composite 8 at omega 3, got IsPrime=%v omega=%v", f.IsPrime, f.Omega)
	}

	for _, tc := range []struct {
		p     int
		omega float64
	}{{1, 0}, {7, -1}, {7, math.NaN()}, {7, math.Inf(1)}} {
		if _, err := svc.Features(ctx, tc.p, tc.omega); !apperrors.IsValidationError(err) {
			t.Errorf("Features(%d, %v): expected ValidationError, got %v", tc.p, tc.omega, err)
		}
	}
}

// TestNearestZero tests both search modes.
func TestNearestZero(t *testing.T) {
	t.Parallel()
	svc := newTestService(0)
	ctx := context.Background()

	tests := []struct {
		name      string
		value     float64
		mode      string
		wantIndex int
		wantMode  string
	}{
		{"raw first zero", 14.134725, "raw", 1, models.ModeRaw},
		{"raw second zero", 21.1, "RAW", 2, models.ModeRaw},
		{"frequency first zero", 14.134725 / (2 * math.Pi), "frequency", 1, models.ModeFrequency},
		{"default mode", 0, "", 1, models.ModeFrequency},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			nz, err := svc.NearestZero(ctx, tc.value, tc.mode)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if nz.Index != tc.wantIndex {
				t.Errorf("Expected index %d, got %d", tc.wantIndex, nz.Index)
			}
			if nz.Mode != tc.wantMode {
				t.Errorf("Expected mode %q, got %q", tc.wantMode, nz.Mode)
			}
			if math.Abs(nz.Distance-math.Abs(nz.Value-tc.value)) > 1e-12 {
				t.Errorf("Expected distance |value-query|, got %v", nz.Distance)
			}
		})
	}

	if _, err := svc.NearestZero(ctx, 1, "bogus"); !apperrors.IsValidationError(err) {
		t.Errorf("Expected ValidationError for bad mode, got %v", err)
	}
	if _, err := svc.NearestZero(ctx, math.NaN(), "raw"); !apperrors.IsValidationError(err) {
		t.Errorf("Expected ValidationError for NaN, got %v", err)
	}
}

// TestPredict tests predictions scored against the true successor.
func TestPredict(t *testing.T) {
	t.Parallel()
	svc := newTestService(10_000)
	ctx := context.Background()

	pred, err := svc.Predict(ctx, "gap-mean", 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if pred.Last != 97 || pred.Actual != 101 {
		t.Errorf("Expected last 97 and actual 101, got %d and %d", pred.Last, pred.Actual)
	}
	if pred.Accuracy < 0 || pred.Accuracy > 100 {
		t.Errorf("Expected accuracy in [0, 100], got %v", pred.Accuracy)
	}
	if pred.Hit != (pred.Predicted == pred.Actual) {
		t.Errorf("Hit %v inconsistent with predicted %d", pred.Hit, pred.Predicted)
	}

	pred, err = svc.Predict(ctx, "", 1000)
	if err != nil {
		t.Fatalf("Unexpected error for default method: %v", err)
	}
	if pred.Last != 997 || pred.Actual != 1009 {
		t.Errorf("Expected last 997 and actual 1009, got %d and %d", pred.Last, pred.Actual)
	}

	if _, err := svc.Predict(ctx, "crystal-ball", 100); !errors.Is(err, ErrUnknownPredictor) {
		t.Errorf("Expected ErrUnknownPredictor, got %v", err)
	}
	if _, err := svc.Predict(ctx, "gap-mean", 2); !apperrors.IsValidationError(err) {
		t.Errorf("Expected ValidationError for a single known prime, got %v", err)
	}
	if _, err := svc.Predict(ctx, "gap-mean", 20_000); !errors.Is(err, ErrMaxLimitExceeded) {
		t.Errorf("Expected ErrMaxLimitExceeded, got %v", err)
	}
}

// TestRunAnalysis tests running a registered analysis by name.
func TestRunAnalysis(t *testing.T) {
	t.Parallel()
	svc := newTestService(0)
	ctx := context.Background()

	rep, err := svc.RunAnalysis(ctx, "Frequency-Law", 1000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rep.Analysis != "frequency-law" {
		t.Errorf("Expected report for frequency-law, got %q", rep.Analysis)
	}

	if _, err := svc.RunAnalysis(ctx, "astrology", 1000); !errors.Is(err, analysis.ErrUnknownAnalysis) {
		t.Errorf("Expected ErrUnknownAnalysis, got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := svc.RunAnalysis(canceled, "frequency-law", 500); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestListings tests the analysis and predictor listings.
func TestListings(t *testing.T) {
	t.Parallel()
	svc := newTestService(0)

	infos := svc.Analyses()
	if len(infos) != len(analysis.DefaultRegistry().List()) {
		t.Errorf("Expected %d analyses, got %d", len(analysis.DefaultRegistry().List()), len(infos))
	}
	for _, info := range infos {
		if info.Description == "" {
			t.Errorf("Analysis %q has no description", info.Name)
		}
	}

	preds := svc.Predictors()
	if len(preds) != 13 {
		t.Errorf("Expected 13 predictors, got %d", len(preds))
	}
	if !slices.Contains(preds, DefaultPredictor) {
		t.Errorf("Expected predictors to contain %q", DefaultPredictor)
	}
	if !slices.IsSorted(preds) {
		t.Error("Expected predictors in alphabetical order")
	}
}

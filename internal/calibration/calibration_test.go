package calibration

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/circuit"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/testutil"
)

func smallGrid() Grid {
	return Grid{
		K:              []float64{0.47, 0.48},
		SizeCorrection: []float64{0.001},
		EnergyScaling:  []float64{1.0, 1.2},
	}
}

func TestDefaultGrid(t *testing.T) {
	t.Parallel()
	g := DefaultGrid()
	if g.Size() != 80 {
		t.Fatalf("Expected 80 candidates, got %d", g.Size())
	}
	c := g.Candidates(circuit.DefaultLargePrimeModel())
	if len(c) != 80 {
		t.Fatalf("Expected 80 models, got %d", len(c))
	}
	first := circuit.LargePrimeModel{K: 0.45, Threshold: 100, SizeCorrection: 0.0005, EnergyScaling: 1.0}
	last := circuit.LargePrimeModel{K: 0.50, Threshold: 100, SizeCorrection: 0.002, EnergyScaling: 1.3}
	if c[0] != first {
		t.Errorf("Expected first candidate %+v, got %+v", first, c[0])
	}
	if c[79] != last {
		t.Errorf("Expected last candidate %+v, got %+v", last, c[79])
	}
	if c[1].EnergyScaling != 1.1 || c[1].K != 0.45 {
		t.Errorf("Expected energy scaling to vary fastest, got %+v", c[1])
	}
}

func TestSamplePrimes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		low, high int
		n         int
		want      []int
		wantErr   bool
	}{
		{"default range", 100, 150, 5, []int{101, 103, 107, 109, 113}, false},
		{"fewer than n", 0, 10, 10, []int{2, 3, 5, 7}, false},
		{"prime gap", 24, 29, 3, nil, true},
		{"zero size", 100, 150, 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := SamplePrimes(tt.low, tt.high, tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	samples := []int{101, 103, 107, 109, 113}
	candidates := smallGrid().Candidates(circuit.DefaultLargePrimeModel())
	progress := make(chan analysis.ProgressUpdate, len(candidates))

	results, err := Search(context.Background(), candidates, samples, 10, progress)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	close(progress)

	if len(results) != len(candidates) {
		t.Fatalf("Expected %d results, got %d", len(candidates), len(results))
	}
	for i, r := range results {
		if r.Model != candidates[i] {
			t.Errorf("Result %d: expected model %+v, got %+v", i, candidates[i], r.Model)
		}
		if r.Err != nil {
			t.Errorf("Result %d: unexpected error %v", i, r.Err)
		}
		if r.Scored == 0 || r.MeanAccuracy <= 0 || r.MeanAccuracy > 100 {
			t.Errorf("Result %d: implausible score %+v", i, r)
		}
	}

	var updates int
	var maxValue float64
	for u := range progress {
		updates++
		maxValue = max(maxValue, u.Value)
	}
	if updates != len(candidates) || maxValue != 1 {
		t.Errorf("Expected %d updates reaching 1.0, got %d reaching %v", len(candidates), updates, maxValue)
	}
}

func TestSearchCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Search(ctx, DefaultGrid().Candidates(circuit.DefaultLargePrimeModel()), []int{101}, 10, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBest(t *testing.T) {
	t.Parallel()
	m := func(k float64) circuit.LargePrimeModel { return circuit.LargePrimeModel{K: k} }
	results := []Result{
		{Model: m(1), MeanAccuracy: 90, Err: errors.New("boom"), Scored: 3},
		{Model: m(2), MeanAccuracy: 70, Scored: 2},
		{Model: m(3), MeanAccuracy: 80, Scored: 1},
		{Model: m(4), MeanAccuracy: 80, Scored: 5},
		{Model: m(5), MeanAccuracy: 99},
	}
	best, ok := Best(results)
	if !ok {
		t.Fatal("Expected a best result")
	}
	if best.Model.K != 3 {
		t.Errorf("Expected the earlier of the tied candidates, got k=%v", best.Model.K)
	}

	if _, ok := Best([]Result{{Model: m(1)}}); ok {
		t.Error("Expected no best result when nothing scored")
	}
}

func TestRunCalibrationWithOptions(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")
	var buf bytes.Buffer

	profile, code := RunCalibrationWithOptions(context.Background(), &buf, CalibrationOptions{
		ProfilePath: path,
		SaveProfile: true,
		Grid:        smallGrid(),
	})
	if code != apperrors.ExitSuccess {
		t.Fatalf("Expected exit code 0, got %d. Output:\n%s", code, buf.String())
	}
	if profile == nil || profile.Candidates != 4 || len(profile.Samples) != DefaultSampleSize {
		t.Fatalf("Unexpected profile %+v", profile)
	}

	out := testutil.StripAnsiCodes(buf.String())
	for _, want := range []string{"Scoring 4 candidates", "Calibration Summary", "(Optimal)", "Best model for this machine", "Calibration profile saved to"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	saved, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("Expected the profile to be saved: %v", err)
	}
	if saved.Model != profile.Model {
		t.Errorf("Saved model %+v differs from returned %+v", saved.Model, profile.Model)
	}
}

func TestRunCalibrationErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty sample range", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		_, code := RunCalibrationWithOptions(context.Background(), &buf, CalibrationOptions{SampleLow: 24, SampleHigh: 29})
		if code != apperrors.ExitErrorConfig {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorConfig, code)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var buf bytes.Buffer
		profile, code := RunCalibrationWithOptions(ctx, &buf, CalibrationOptions{})
		if code != apperrors.ExitErrorCanceled || profile != nil {
			t.Errorf("Expected exit code %d and no profile, got %d", apperrors.ExitErrorCanceled, code)
		}
		if !strings.Contains(buf.String(), "Calibration interrupted") {
			t.Errorf("Expected interruption message, got:\n%s", buf.String())
		}
	})
}

func TestLoadCachedCalibration(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	env := analysis.EnvOptions{Limit: 500}

	if got, ok := LoadCachedCalibration(env, filepath.Join(dir, "missing.json")); ok || got.LargePrime != (circuit.LargePrimeModel{}) {
		t.Errorf("Expected no change for a missing profile, got ok=%v %+v", ok, got.LargePrime)
	}

	model := circuit.LargePrimeModel{K: 0.49, Threshold: 100, SizeCorrection: 0.0005, EnergyScaling: 1.3}
	p := NewProfile()
	p.Model = model
	path := filepath.Join(dir, "profile.json")
	if err := p.SaveProfile(path); err != nil {
		t.Fatal(err)
	}
	got, ok := LoadCachedCalibration(env, path)
	if !ok {
		t.Fatal("Expected the cached profile to apply")
	}
	if got.LargePrime != model || got.Limit != 500 {
		t.Errorf("Expected model %+v with limit kept, got %+v", model, got)
	}

	p.Model = circuit.LargePrimeModel{}
	bad := filepath.Join(dir, "bad.json")
	if err := p.SaveProfile(bad); err != nil {
		t.Fatal(err)
	}
	if _, ok := LoadCachedCalibration(env, bad); ok {
		t.Error("Expected a profile with an invalid model to be ignored")
	}
}

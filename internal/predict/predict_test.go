package predict

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/agbru/primelab/internal/circuit"
	"github.com/agbru/primelab/internal/primes"
)

// known25 is the list of primes below 100; the next prime is 101.
var known25 = primes.Sieve(100)

func TestHeuristicPredictors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		p     Predictor
		raw   float64
		prime int
	}{
		{"gap-mean", GapMean{}, 106.087606, 107},
		{"resistance", Resistance{}, 127.941099, 127},
		{"unified", Unified{}, 119.2, 113},
		{"golden", Golden{}, 156.949297, 157},
		{"frequency", Frequency{}, 103.639419, 103},
		{"error-corrected", ErrorCorrected{}, 100.974657, 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pred, err := tt.p.Predict(context.Background(), known25)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if pred.Method != tt.name || tt.p.Name() != tt.name {
				t.Errorf("Expected method %q, got %q", tt.name, pred.Method)
			}
			if math.Abs(pred.Raw-tt.raw) > 1e-5 {
				t.Errorf("Expected raw %v, got %v", tt.raw, pred.Raw)
			}
			if pred.Prime != tt.prime {
				t.Errorf("Expected prime %d, got %d", tt.prime, pred.Prime)
			}
		})
	}
}

func TestGapMeanShortList(t *testing.T) {
	t.Parallel()
	pred, err := GapMean{}.Predict(context.Background(), []int{2, 3})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Raw != 5 || pred.Prime != 5 {
		t.Errorf("Expected the p + 2 fallback, got %+v", pred)
	}
}

func TestInsufficientData(t *testing.T) {
	t.Parallel()
	f := NewFactory(Options{})
	for name, p := range f.GetAll() {
		if _, err := p.Predict(context.Background(), []int{2}); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("%s: expected ErrInsufficientData for one prime, got %v", name, err)
		}
		if _, err := p.Predict(context.Background(), nil); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("%s: expected ErrInsufficientData for no primes, got %v", name, err)
		}
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, p := range GlobalFactory().GetAll() {
		if _, err := p.Predict(ctx, known25); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", name, err)
		}
	}
}

func TestCircuitPredictor(t *testing.T) {
	t.Parallel()
	pred, err := NewCircuit(Options{}).Predict(context.Background(), known25)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Prime != 101 {
		t.Errorf("Expected 101, got %d (raw %v)", pred.Prime, pred.Raw)
	}
	if math.Abs(pred.Details["recovered"]-206.502382) > 1e-5 {
		t.Errorf("Unexpected recovered value %v", pred.Details["recovered"])
	}

	static := NewCircuit(Options{Corrector: circuit.DefaultStatic})
	pred, err = static.Predict(context.Background(), known25)
	if err != nil {
		t.Fatal(err)
	}
	if pred.Prime != 103 {
		t.Errorf("Expected static correction to reach 103, got %d (raw %v)", pred.Prime, pred.Raw)
	}
}

func TestLargePrimePredictor(t *testing.T) {
	t.Parallel()
	known := primes.Sieve(101)
	pred, err := NewLargePrime(Options{}).Predict(context.Background(), known)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred.Raw-143.922934) > 1e-4 {
		t.Errorf("Expected raw 143.922934, got %v", pred.Raw)
	}
	if pred.Prime != 149 {
		t.Errorf("Expected 149, got %d", pred.Prime)
	}
}

func TestZetaSync(t *testing.T) {
	t.Parallel()
	z := ZetaSync{Zeros: DefaultOptions().Zeros}
	pts := SyncPoints(known25, z.Zeros)
	if len(pts) != 10 || pts[0].Prime != 41 || pts[len(pts)-1].Prime != 97 {
		t.Fatalf("Unexpected sync points: %+v", pts)
	}
	pred, err := z.Predict(context.Background(), known25)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred.Raw-117.573716) > 1e-5 || pred.Prime != 113 {
		t.Errorf("Unexpected prediction %+v", pred)
	}
	if math.Abs(pred.Confidence-0.560190) > 1e-5 {
		t.Errorf("Expected mean sync strength 0.560190, got %v", pred.Confidence)
	}

	if _, err := z.Predict(context.Background(), []int{2, 3, 5}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData without sync points, got %v", err)
	}
}

func TestRegressionAndSpectral(t *testing.T) {
	t.Parallel()
	for _, p := range []Predictor{Regression{}, Spectral{}, Advanced{Zeros: DefaultOptions().Zeros}} {
		pred, err := p.Predict(context.Background(), known25)
		if err != nil {
			t.Fatalf("%s failed: %v", p.Name(), err)
		}
		if pred.Prime <= 89 || pred.Prime > 200 {
			t.Errorf("%s: implausible prediction %+v", p.Name(), pred)
		}
		if pred.Confidence < 0 || pred.Confidence > 1 {
			t.Errorf("%s: confidence out of range: %v", p.Name(), pred.Confidence)
		}
	}

	pred, err := Regression{}.Predict(context.Background(), known25)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(pred.Prime-101)) > 10 {
		t.Errorf("Regression should land near 101, got %d", pred.Prime)
	}
	if pred.Details["r2"] < 0.99 {
		t.Errorf("Expected a near-perfect in-sample fit, got R² %v", pred.Details["r2"])
	}
}

func TestEnsemble(t *testing.T) {
	t.Parallel()
	e := NewEnsemble(Options{})
	pred, err := e.Predict(context.Background(), known25)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(pred.Details) != 4 {
		t.Errorf("Expected all four members to contribute, got %v", pred.Details)
	}
	var want float64
	for i, name := range []string{NameRegression, NameSpectral, NameZetaSync, NameUnified} {
		want += ensembleWeights[i] * pred.Details[name]
	}
	if math.Abs(pred.Raw-want) > 1e-9 {
		t.Errorf("Expected weighted sum %v, got %v", want, pred.Raw)
	}

	// Below seven known primes regression drops out and the plain mean applies.
	short := []int{2, 3, 5, 7, 11, 13}
	pred, err = e.Predict(context.Background(), short)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if _, ok := pred.Details[NameRegression]; ok {
		t.Error("Regression should not contribute with six primes")
	}
	var sum float64
	for _, v := range pred.Details {
		sum += v
	}
	if math.Abs(pred.Raw-sum/float64(len(pred.Details))) > 1e-9 {
		t.Errorf("Expected the plain mean, got %v", pred.Raw)
	}
}

func TestAccuracy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pred, actual, want float64
	}{
		{101, 101, 100},
		{103, 101, 100 - 200.0/101},
		{1000, 101, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Accuracy(tt.pred, tt.actual); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Accuracy(%v, %v) = %v, want %v", tt.pred, tt.actual, got, tt.want)
		}
	}
}

func TestBacktest(t *testing.T) {
	t.Parallel()
	ps := primes.Sieve(200)
	res, err := Backtest(context.Background(), NewCircuit(Options{}), ps, 5, 30)
	if err != nil {
		t.Fatalf("Backtest failed: %v", err)
	}
	if res.Evaluated != 25 || res.Skipped != 0 {
		t.Errorf("Expected 25 evaluated steps, got %d (skipped %d)", res.Evaluated, res.Skipped)
	}
	if res.Hits == 0 || res.MeanAccuracy <= 90 {
		t.Errorf("Circuit predictor should track the next prime, got %+v", res)
	}

	res, err = Backtest(context.Background(), Regression{}, ps, 2, 12)
	if err != nil {
		t.Fatalf("Backtest failed: %v", err)
	}
	if res.Skipped != regressionMinKnown-2 {
		t.Errorf("Expected %d skipped steps, got %d", regressionMinKnown-2, res.Skipped)
	}

	if _, err := Backtest(context.Background(), GapMean{}, ps, 0, 5); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected a range error, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Backtest(ctx, GapMean{}, ps, 2, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/testutil"
	"github.com/agbru/primelab/pkg/models"
)

// mockService implements service.Service with canned answers and records
// the arguments it was called with.
type mockService struct {
	err        error
	lastLimit  int
	lastMethod string
	lastMode   string
	lastOmega  float64
}

func (m *mockService) Primes(_ context.Context, limit int) (*models.PrimesResponse, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return &models.PrimesResponse{Limit: limit, Count: 4, Primes: []int{2, 3, 5, 7}}, nil
}

func (m *mockService) Features(_ context.Context, p int, omega float64) (*models.Features, error) {
	m.lastOmega = omega
	if m.err != nil {
		return nil, m.err
	}
	return &models.Features{Prime: p, IsPrime: p == 7, Resistance: 2.6457513, NearestZero: 14.134725}, nil
}

func (m *mockService) NearestZero(_ context.Context, value float64, mode string) (*models.NearestZero, error) {
	m.lastMode = mode
	if m.err != nil {
		return nil, m.err
	}
	return &models.NearestZero{Query: value, Mode: mode, Index: 1, Zero: 14.134725}, nil
}

func (m *mockService) Predict(_ context.Context, method string, limit int) (*models.Prediction, error) {
	m.lastMethod, m.lastLimit = method, limit
	if m.err != nil {
		return nil, m.err
	}
	return &models.Prediction{Method: "gap-mean", Limit: limit, Last: 97, Predicted: 101, Actual: 101, Accuracy: 100, Hit: true}, nil
}

func (m *mockService) RunAnalysis(_ context.Context, name string, limit int) (*report.Report, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	r := report.New(name, "Mock Report")
	r.AddMetric("primes", 168, "")
	return r, nil
}

func (m *mockService) Analyses() []models.AnalysisInfo {
	return []models.AnalysisInfo{{Name: "frequency-law", Description: "Frequency law check"}}
}

func (m *mockService) Predictors() []string { return []string{"ensemble", "gap-mean"} }

func newTestREPL(svc *mockService) (*REPL, *bytes.Buffer) {
	r := NewREPL(svc, REPLConfig{Limit: 500, Timeout: time.Second})
	var out bytes.Buffer
	r.SetOutput(&out)
	return r, &out
}

func TestNewREPLDefaults(t *testing.T) {
	t.Parallel()
	r := NewREPL(&mockService{}, REPLConfig{})
	if r.config.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", r.config.Limit)
	}
	if r.config.Timeout != time.Minute {
		t.Errorf("Expected default timeout 1m, got %v", r.config.Timeout)
	}
}

func TestProcessCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"features", "features 7", []string{"Features of 7", "(prime)", "Nearest zero"}},
		{"bare number", "8", []string{"Features of 8", "not prime"}},
		{"nearest", "nearest 2.25", []string{"Zero #1", "14.134725"}},
		{"predict", "predict gap-mean 100", []string{"gap-mean after 97", "predicted 101", "✓ hit"}},
		{"primes", "primes 10", []string{"π(10) = 4", "2 3 5 7"}},
		{"check prime", "check 13", []string{"13 is prime", "previous prime 11", "next prime 17"}},
		{"check composite", "check 15", []string{"15 is not prime", "next prime 17"}},
		{"run", "run frequency-law", []string{"Mock Report", "frequency-law", "Completed in"}},
		{"list", "list", []string{"frequency-law", "ensemble, gap-mean"}},
		{"status", "status", []string{"Limit:", "500", "Predictor:", "ensemble"}},
		{"help", "help", []string{"Available commands", "features <p> [omega]"}},
		{"unknown", "frobnicate", []string{"Unknown command: frobnicate"}},
		{"missing argument", "features", []string{"usage: features <p> [omega]"}},
		{"bad number", "primes ten", []string{"invalid integer: ten"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, out := newTestREPL(&mockService{})
			if !r.processCommand(tc.input) {
				t.Fatal("Expected the session to continue")
			}
			got := testutil.StripAnsiCodes(out.String())
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("Expected output to contain %q, got:\n%s", w, got)
				}
			}
		})
	}
}

func TestProcessCommandArguments(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	r, _ := newTestREPL(svc)

	r.processCommand("predict")
	if svc.lastMethod != "" || svc.lastLimit != 500 {
		t.Errorf("Expected default method and limit 500, got %q and %d", svc.lastMethod, svc.lastLimit)
	}
	r.processCommand("predict 2000")
	if svc.lastLimit != 2000 {
		t.Errorf("Expected limit 2000, got %d", svc.lastLimit)
	}
	r.processCommand("nearest 30 raw")
	if svc.lastMode != "raw" {
		t.Errorf("Expected raw mode, got %q", svc.lastMode)
	}
	r.processCommand("features 11 3.5")
	if svc.lastOmega != 3.5 {
		t.Errorf("Expected omega 3.5, got %v", svc.lastOmega)
	}
	r.processCommand("limit 300")
	r.processCommand("run gaps")
	if svc.lastLimit != 300 {
		t.Errorf("Expected run to use the new limit 300, got %d", svc.lastLimit)
	}
}

func TestProcessCommandErrors(t *testing.T) {
	t.Parallel()
	r, out := newTestREPL(&mockService{err: errors.New("boom")})
	r.processCommand("predict")
	if !strings.Contains(out.String(), "Error: boom") {
		t.Errorf("Expected service error to be printed, got %q", out.String())
	}

	out.Reset()
	r.processCommand("limit 1")
	if !strings.Contains(out.String(), "limit must be between") {
		t.Errorf("Expected limit validation, got %q", out.String())
	}
}

func TestProcessCommandExit(t *testing.T) {
	t.Parallel()
	for _, cmd := range []string{"exit", "quit", "q", "EXIT"} {
		r, _ := newTestREPL(&mockService{})
		if r.processCommand(cmd) {
			t.Errorf("Expected %q to end the session", cmd)
		}
	}
}

func TestREPLStart(t *testing.T) {
	t.Parallel()
	r, out := newTestREPL(&mockService{})
	r.SetInput(strings.NewReader("check 7\n\nprimes 10\nexit\nprimes 20\n"))
	r.Start()

	got := testutil.StripAnsiCodes(out.String())
	for _, w := range []string{"Interactive Mode", "7 is prime", "π(10) = 4", "Goodbye!"} {
		if !strings.Contains(got, w) {
			t.Errorf("Expected output to contain %q", w)
		}
	}
	if strings.Contains(got, "π(20)") {
		t.Error("Commands after exit should not run")
	}
}

func TestREPLStartEOF(t *testing.T) {
	t.Parallel()
	r, out := newTestREPL(&mockService{})
	r.SetInput(strings.NewReader("check 4"))
	r.Start()

	got := testutil.StripAnsiCodes(out.String())
	if !strings.Contains(got, "4 is not prime") {
		t.Errorf("Expected the last unterminated line to run, got:\n%s", got)
	}
	if !strings.Contains(got, "Goodbye!") {
		t.Error("Expected EOF to end the session")
	}
}

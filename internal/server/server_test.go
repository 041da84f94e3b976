package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/config"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/logging"
	"github.com/agbru/primelab/internal/report"
	"github.com/agbru/primelab/internal/service"
	"github.com/agbru/primelab/pkg/models"
)

// mockService is a hand-written service.Service returning canned values
// and recording the arguments it received.
type mockService struct {
	err        error
	lastLimit  int
	lastMethod string
	lastMode   string
	lastOmega  float64
	lastName   string
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
	return &models.Features{Prime: p, IsPrime: true, Omega: omega}, nil
}

func (m *mockService) NearestZero(_ context.Context, value float64, mode string) (*models.NearestZero, error) {
	m.lastMode = mode
	if m.err != nil {
		return nil, m.err
	}
	return &models.NearestZero{Query: value, Mode: "frequency", Index: 1, Zero: 14.134725}, nil
}

func (m *mockService) Predict(_ context.Context, method string, limit int) (*models.Prediction, error) {
	m.lastMethod, m.lastLimit = method, limit
	if m.err != nil {
		return nil, m.err
	}
	return &models.Prediction{Method: method, Limit: limit, Last: 97, Predicted: 101, Actual: 101, Hit: true, Accuracy: 100}, nil
}

func (m *mockService) RunAnalysis(_ context.Context, name string, limit int) (*report.Report, error) {
	m.lastName, m.lastLimit = name, limit
	if m.err != nil {
		return nil, m.err
	}
	r := report.New(name, "Mock")
	r.AddMetric("primes", 25, "")
	return r, nil
}

func (m *mockService) Analyses() []models.AnalysisInfo {
	return []models.AnalysisInfo{{Name: "gaps", Description: "Prime gaps"}}
}

func (m *mockService) Predictors() []string { return []string{"ensemble", "gap-mean"} }

type mockHistory struct {
	runs []models.Run
	n    int
}

func (h *mockHistory) Recent(_ context.Context, n int) ([]models.Run, error) {
	h.n = n
	return h.runs, nil
}

func quietLogger() logging.Logger { return logging.NewLogger(io.Discard, "server") }

func createTestServer(svc service.Service, opts ...Option) *Server {
	cfg := config.AppConfig{Port: "8080", Limit: 100, Correction: "dynamic"}
	opts = append([]Option{WithService(svc), WithLogger(quietLogger())}, opts...)
	return NewServer(cfg, opts...)
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	s := createTestServer(&mockService{}, WithVersion("v1.2.3"))
	rr := do(t, s, "/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Version != "v1.2.3" || resp.Timestamp == 0 {
		t.Errorf("Unexpected health response %+v", resp)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a request ID header")
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	s := createTestServer(&mockService{})

	t.Run("Assigned when absent", func(t *testing.T) {
		t.Parallel()
		rr := do(t, s, "/health")
		if _, err := uuid.Parse(rr.Header().Get(RequestIDHeader)); err != nil {
			t.Errorf("Expected a UUID request ID, got %q", rr.Header().Get(RequestIDHeader))
		}
	})

	t.Run("Caller UUID is kept", func(t *testing.T) {
		t.Parallel()
		const id = "0b6f1f56-3f5e-4d3a-9a53-2f1c7d2b9e10"
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		req.Header.Set(RequestIDHeader, id)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		if got := rr.Header().Get(RequestIDHeader); got != id {
			t.Errorf("Expected request ID %q, got %q", id, got)
		}
	})

	t.Run("Malformed ID is replaced", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		if got := rr.Header().Get(RequestIDHeader); got == "not-a-uuid" {
			t.Error("Expected the malformed request ID to be replaced")
		}
	})
}

func TestHandlePrimes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		target    string
		svcErr    error
		status    int
		wantLimit int
	}{
		{"default limit", "/primes", nil, http.StatusOK, 100},
		{"explicit limit", "/primes?limit=10", nil, http.StatusOK, 10},
		{"not a number", "/primes?limit=abc", nil, http.StatusBadRequest, 0},
		{"validation", "/primes?limit=1", apperrors.NewValidationError("limit", "must be at least 2", 1), http.StatusBadRequest, 1},
		{"too large", "/primes?limit=999999999", fmt.Errorf("%w: big", service.ErrMaxLimitExceeded), http.StatusBadRequest, 999999999},
		{"timeout", "/primes?limit=50", context.DeadlineExceeded, http.StatusGatewayTimeout, 50},
		{"internal", "/primes?limit=50", errors.New("boom"), http.StatusInternalServerError, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockService{err: tt.svcErr}
			rr := do(t, createTestServer(svc), tt.target)
			if rr.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if svc.lastLimit != tt.wantLimit {
				t.Errorf("Expected limit %d to reach the service, got %d", tt.wantLimit, svc.lastLimit)
			}
			if tt.status != http.StatusOK {
				resp := decodeError(t, rr)
				if resp.Error != http.StatusText(tt.status) || resp.Message == "" {
					t.Errorf("Unexpected error body %+v", resp)
				}
			}
		})
	}
}

func TestHandleFeatures(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	s := createTestServer(svc)

	rr := do(t, s, "/features?p=7&omega=3.5")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var f models.Features
	if err := json.Unmarshal(rr.Body.Bytes(), &f); err != nil {
		t.Fatal(err)
	}
	if f.Prime != 7 || svc.lastOmega != 3.5 {
		t.Errorf("Expected p=7 omega=3.5, got %+v (omega %v)", f, svc.lastOmega)
	}

	for _, target := range []string{"/features", "/features?p=x", "/features?p=7&omega=fast"} {
		if rr := do(t, s, target); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}

func TestHandleNearestZero(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	s := createTestServer(svc)

	rr := do(t, s, "/nearest-zero?value=2.25&mode=raw")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if svc.lastMode != "raw" {
		t.Errorf("Expected mode raw to reach the service, got %q", svc.lastMode)
	}
	if rr := do(t, s, "/nearest-zero"); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without value, got %d", rr.Code)
	}
	if rr := do(t, s, "/nearest-zero?value=abc"); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric value, got %d", rr.Code)
	}
}

func TestHandlePredict(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	s := createTestServer(svc)

	rr := do(t, s, "/predict?method=gap-mean&limit=100")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var p models.Prediction
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Method != "gap-mean" || p.Predicted != 101 || !p.Hit {
		t.Errorf("Unexpected prediction %+v", p)
	}

	unknown := createTestServer(&mockService{err: fmt.Errorf("%w: %q", service.ErrUnknownPredictor, "oracle")})
	if rr := do(t, unknown, "/predict?method=oracle"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown predictor, got %d", rr.Code)
	}
}

func TestHandleAnalyses(t *testing.T) {
	t.Parallel()
	svc := &mockService{}
	s := createTestServer(svc)

	rr := do(t, s, "/analyses")
	var list models.AnalysesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Analyses) != 1 || list.Analyses[0].Name != "gaps" {
		t.Errorf("Unexpected analyses %+v", list)
	}

	rr = do(t, s, "/analyses/gaps?limit=500")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if svc.lastName != "gaps" || svc.lastLimit != 500 {
		t.Errorf("Expected gaps at 500, got %s at %d", svc.lastName, svc.lastLimit)
	}
	if !strings.Contains(rr.Body.String(), `"analysis":"gaps"`) {
		t.Errorf("Expected the report in the body, got %s", rr.Body.String())
	}

	unknown := createTestServer(&mockService{err: fmt.Errorf("%w: %q", analysis.ErrUnknownAnalysis, "nope")})
	if rr := do(t, unknown, "/analyses/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown analysis, got %d", rr.Code)
	}
}

func TestHandlePredictors(t *testing.T) {
	t.Parallel()
	rr := do(t, createTestServer(&mockService{}), "/predictors")
	var resp models.PredictorsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Predictors) != 2 || resp.Predictors[0] != "ensemble" {
		t.Errorf("Unexpected predictors %+v", resp)
	}
}

func TestHandleHistory(t *testing.T) {
	t.Parallel()

	disabled := createTestServer(&mockService{})
	if rr := do(t, disabled, "/history"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without history, got %d", rr.Code)
	}

	h := &mockHistory{runs: []models.Run{{ID: "abc", Limit: 1000, Status: "success"}}}
	s := createTestServer(&mockService{}, WithHistory(h))

	rr := do(t, s, "/history")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if h.n != defaultHistoryRuns {
		t.Errorf("Expected default count %d, got %d", defaultHistoryRuns, h.n)
	}
	var resp models.HistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Runs) != 1 || resp.Runs[0].ID != "abc" {
		t.Errorf("Unexpected history %+v", resp)
	}

	for _, target := range []string{"/history?n=0", "/history?n=101", "/history?n=x"} {
		if rr := do(t, s, target); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s := createTestServer(&mockService{})
	for _, path := range []string{"/health", "/primes", "/predict"} {
		req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: expected 405, got %d", path, rr.Code)
		}
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	rr := do(t, createTestServer(&mockService{}), "/calculate")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "Not Found" {
		t.Errorf("Unexpected body %+v", resp)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := createTestServer(&mockService{}, WithStdLogger(log.New(&buf, "", 0)))
	do(t, s, "/primes?limit=10")

	out := buf.String()
	for _, want := range []string{"request", "path=/primes", "status=200", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got %q", want, out)
		}
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("p", "bad", 1), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", apperrors.NewValidationError("p", "bad", 1)), http.StatusBadRequest},
		{service.ErrMaxLimitExceeded, http.StatusBadRequest},
		{analysis.ErrUnknownAnalysis, http.StatusNotFound},
		{service.ErrUnknownPredictor, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWithOptions(t *testing.T) {
	t.Parallel()
	custom := Timeouts{RequestTimeout: time.Second, ShutdownTimeout: 2 * time.Second, ReadTimeout: 3 * time.Second, WriteTimeout: 4 * time.Second, IdleTimeout: 5 * time.Second}
	svc := &mockService{}
	s := createTestServer(svc, WithTimeouts(custom))

	if s.timeouts != custom {
		t.Errorf("Expected timeouts %+v, got %+v", custom, s.timeouts)
	}
	if s.httpServer.ReadTimeout != 3*time.Second || s.httpServer.IdleTimeout != 5*time.Second {
		t.Error("Expected the HTTP server to use the custom timeouts")
	}
	if s.service != svc {
		t.Error("Expected WithService to be applied")
	}
	if s.httpServer.Addr != ":8080" {
		t.Errorf("Expected address :8080, got %s", s.httpServer.Addr)
	}

	before := s.logger
	WithLogger(nil)(s)
	WithService(nil)(s)
	WithHistory(nil)(s)
	if s.logger != before || s.service != svc || s.history != nil {
		t.Error("Expected nil options to be ignored")
	}
}

func TestDefaultServiceEndToEnd(t *testing.T) {
	t.Parallel()
	cfg := config.AppConfig{Port: "0", Limit: 100, Correction: "dynamic", Voltages: config.Voltages{10}}
	s := NewServer(cfg, WithLogger(quietLogger()))

	rr := do(t, s, "/primes?limit=30")
	var primes models.PrimesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &primes); err != nil {
		t.Fatal(err)
	}
	if primes.Count != 10 || primes.Primes[9] != 29 {
		t.Errorf("Expected the 10 primes up to 30, got %+v", primes)
	}

	rr = do(t, s, "/analyses/frequency-law?limit=200")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"analysis":"frequency-law"`) {
		t.Errorf("Expected the frequency-law report, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, s, "/predict?method=gap-mean&limit=100")
	var p models.Prediction
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Last != 97 || p.Actual != 101 {
		t.Errorf("Expected last 97 and actual 101, got %+v", p)
	}
}

func TestShutdown(t *testing.T) {
	t.Parallel()
	s := createTestServer(&mockService{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Expected shutdown of an idle server to succeed, got %v", err)
	}
}

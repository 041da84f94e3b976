package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/agbru/primelab/internal/analysis"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/service"
	"github.com/agbru/primelab/pkg/models"
)

// Query defaults.
const (
	defaultHistoryRuns = 10
	maxHistoryRuns     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().Unix(),
	})
}

func (s *Server) handlePredictors(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, models.PredictorsResponse{Predictors: s.service.Predictors()})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, models.AnalysesResponse{Analyses: s.service.Analyses()})
}

// handlePrimes answers GET /primes?limit=n.
func (s *Server) handlePrimes(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", s.cfg.Limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	resp, err := s.service.Primes(ctx, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleFeatures answers GET /features?p=7&omega=14.
func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	p, err := requiredIntParam(r, "p")
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	omega, err := floatParam(r, "omega", 0)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	resp, err := s.service.Features(ctx, p, omega)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleNearestZero answers GET /nearest-zero?value=x&mode=frequency|raw.
func (s *Server) handleNearestZero(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("value")
	if raw == "" {
		s.writeServiceError(w, apperrors.NewValidationError("value", "is required", ""))
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.writeServiceError(w, apperrors.NewValidationError("value", "must be a number", raw))
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	resp, err := s.service.NearestZero(ctx, value, r.URL.Query().Get("mode"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handlePredict answers GET /predict?method=name&limit=n inside a trace
// span.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", s.cfg.Limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	method := r.URL.Query().Get("method")

	ctx, cancel := s.requestContext(r)
	defer cancel()
	ctx, span := otel.Tracer("primelab/server").Start(ctx, "server.Predict")
	defer span.End()
	span.SetAttributes(attribute.String("predict.method", method), attribute.Int("predict.limit", limit))

	resp, err := s.service.Predict(ctx, method, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.writeServiceError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("predict.predicted", resp.Predicted), attribute.Bool("predict.hit", resp.Hit))
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleRunAnalysis answers GET /analyses/{name}?limit=n with the report.
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	limit, err := intParam(r, "limit", s.cfg.Limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	rep, err := s.service.RunAnalysis(ctx, name, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, rep)
}

// handleHistory answers GET /history?n=count. It is 404 when the server
// runs without a history database.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "History is not enabled (start with -history <path>)")
		return
	}
	n, err := intParam(r, "n", defaultHistoryRuns)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if n < 1 || n > maxHistoryRuns {
		s.writeServiceError(w, apperrors.NewValidationError("n", "must be between 1 and 100", n))
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	runs, err := s.history.Recent(ctx, n)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, models.HistoryResponse{Runs: runs})
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeouts.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
}

// ─────────────────────────────────────────────────────────────────────────────
// Parameter Parsing
// ─────────────────────────────────────────────────────────────────────────────

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, "must be an integer", raw)
	}
	return v, nil
}

func requiredIntParam(r *http.Request, name string) (int, error) {
	if r.URL.Query().Get(name) == "" {
		return 0, apperrors.NewValidationError(name, "is required", "")
	}
	return intParam(r, name, 0)
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name, "must be a number", raw)
	}
	return v, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────────────────────────────────────

// statusFor maps a service error to an HTTP status: 400 for invalid input,
// 404 for unknown names, 504 for an exceeded deadline.
func statusFor(err error) int {
	switch {
	case apperrors.IsValidationError(err), errors.Is(err, service.ErrMaxLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrUnknownAnalysis), errors.Is(err, service.ErrUnknownPredictor):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", err)
	}
	s.writeErrorResponse(w, status, err.Error())
}

// writeJSONResponse writes data as JSON with the given status.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse writes a models.ErrorResponse.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

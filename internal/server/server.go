// Package server provides the HTTP API of primelab. Routing uses chi; the
// computations are delegated to a service.Service.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agbru/primelab/internal/analysis"
	"github.com/agbru/primelab/internal/config"
	apperrors "github.com/agbru/primelab/internal/errors"
	"github.com/agbru/primelab/internal/logging"
	"github.com/agbru/primelab/internal/service"
	"github.com/agbru/primelab/pkg/models"
)

// HistoryReader lists recorded runs. *history.Store implements it.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]models.Run, error)
}

// Server is the HTTP server of the primelab API. It wraps http.Server with
// a chi router and graceful shutdown.
type Server struct {
	service        service.Service
	history        HistoryReader
	cfg            config.AppConfig
	version        string
	router         chi.Router
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer creates a server listening on cfg.Port.
//
// Parameters:
//   - cfg: The application configuration (port, limit, circuit options).
//   - opts: Functional options such as WithService or WithHistory.
//
// Returns:
//   - *Server: The configured server, not yet started.
func NewServer(cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		base, err := cfg.ToEnvOptions()
		if err != nil {
			s.logger.Error("invalid circuit options, using defaults", err)
			base = analysis.EnvOptions{Limit: cfg.Limit}
		}
		s.service = service.NewPrimeService(analysis.DefaultRegistry(), base, 0)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// routes builds the router. Middleware order: request ID, panic recovery,
// logging, metrics.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeErrorResponse(w, http.StatusNotFound, "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/primes", s.handlePrimes)
	r.Get("/features", s.handleFeatures)
	r.Get("/nearest-zero", s.handleNearestZero)
	r.Get("/predict", s.handlePredict)
	r.Get("/predictors", s.handlePredictors)
	r.Get("/analyses", s.handleAnalyses)
	r.Get("/analyses/{name}", s.handleRunAnalysis)
	r.Get("/history", s.handleHistory)
	return r
}

// Handler returns the router, for embedding or httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
//
// Returns:
//   - error: An error if the server fails to start or to shut down.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.Int("default_limit", s.cfg.Limit),
			logging.String("correction", s.cfg.Correction))
		s.logger.Println("Available endpoints:")
		for _, ep := range endpoints {
			s.logger.Println("  GET " + ep)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Println("Shutdown signal received, initiating graceful shutdown...")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Println("Server stopped gracefully")
	return nil
}

// Shutdown stops accepting requests and waits for active ones until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	return nil
}

var endpoints = []string{
	"/health",
	"/metrics",
	"/primes?limit=<n>",
	"/features?p=<prime>&omega=<rad/s>",
	"/nearest-zero?value=<x>&mode=frequency|raw",
	"/predict?method=<name>&limit=<n>",
	"/predictors",
	"/analyses",
	"/analyses/{name}?limit=<n>",
	"/history?n=<count>",
}

// Package server provides the Magnetophon HTTP API: health and readiness
// probes, Prometheus metrics, and a small JSON surface over the engine's
// current state and baseline curve.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/internal/engine"
	"github.com/dmayorov/magnetophon/internal/version"
	"github.com/dmayorov/magnetophon/pkg/models"
)

// EngineSource exposes the live engine state to the API layer.
type EngineSource interface {
	Status() engine.Status
	CurveStates() []baseline.BucketState
}

// HistorySource serves the persisted activity log. Optional; nil disables
// the history endpoint's backing store.
type HistorySource interface {
	History(ctx context.Context, limit int) ([]models.Interval, error)
}

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// RouteRegistrar lets external packages (the WebSocket feed) register
// routes on the server without creating import cycles.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the Magnetophon HTTP server.
type Server struct {
	httpServer *http.Server
	engine     EngineSource
	history    HistorySource
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
}

// New creates a Server with middleware and routes. history may be nil when
// persistence is disabled. Additional route registrars can be passed to
// mount extra endpoints.
func New(addr string, eng EngineSource, history HistorySource, logger *zap.Logger, ready ReadinessChecker, extraRoutes ...RouteRegistrar) *Server {
	mux := http.NewServeMux()

	s := &Server{
		engine:  eng,
		history: history,
		logger:  logger,
		mux:     mux,
		ready:   ready,
	}

	s.registerRoutes()
	for _, r := range extraRoutes {
		r.RegisterRoutes(mux)
	}

	// Middleware chain: outermost listed first.
	handler := Chain(mux,
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, []string{"/healthz", "/readyz", "/metrics"}),
		VersionHeaderMiddleware,
		RateLimitMiddleware(100, 200, []string{"/healthz", "/readyz", "/metrics", "/ws"}),
	)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes sets up all core routes.
func (s *Server) registerRoutes() {
	// Unversioned operational endpoints.
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Versioned API endpoints.
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/baseline", s.handleBaseline)
	s.mux.HandleFunc("GET /api/v1/history", s.handleHistory)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealthz is a liveness probe -- returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "alive", "version": version.Short()})
}

// handleReadyz checks readiness -- returns 200 if the server can serve traffic.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ready"})
}

// handleStatus returns the engine state after the most recent evaluation.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.engine.Status())
}

// BucketResponse is one baseline bucket in the /api/v1/baseline response.
type BucketResponse struct {
	Class string  `json:"class"`
	Hour  int     `json:"hour"`
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
}

// handleBaseline returns every baseline bucket with derived statistics.
func (s *Server) handleBaseline(w http.ResponseWriter, _ *http.Request) {
	states := s.engine.CurveStates()
	out := make([]BucketResponse, 0, len(states))
	for _, st := range states {
		var stdev float64
		if st.N > 1 {
			stdev = math.Sqrt(st.S / float64(st.N-1))
		}
		out = append(out, BucketResponse{
			Class: string(st.Class),
			Hour:  st.Hour,
			Count: st.N,
			Mean:  st.Mean,
			Stdev: stdev,
		})
	}
	writeJSON(w, out)
}

// handleHistory returns recent intervals from the activity log, oldest
// first. The limit query parameter caps the row count (default 100).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		NotFound(w, "activity log persistence is disabled", r.URL.Path)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			BadRequest(w, "limit must be a non-negative integer", r.URL.Path)
			return
		}
		limit = n
	}

	intervals, err := s.history.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", zap.Error(err))
		InternalError(w, "history query failed", r.URL.Path)
		return
	}
	writeJSON(w, intervals)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

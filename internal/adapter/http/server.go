// Package http is the thin HTTP adapter over the query engine: operational
// endpoints plus a direct mapping of the public query operation. It holds no
// query logic of its own.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydroframe/point-obs/internal/catalog"
	"github.com/hydroframe/point-obs/internal/domain"
	"github.com/hydroframe/point-obs/internal/query"
)

// QueryEngine executes the public query operation.
type QueryEngine interface {
	Query(ctx context.Context, spec domain.QuerySpec) (domain.ObservationTable, *domain.MetadataTable, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a plain function (typically the archive ping) to the
// ReadinessChecker interface.
type ReadinessFunc func(ctx context.Context) error

// CheckReadiness calls f.
func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Server exposes health, readiness, metrics, catalog, and query endpoints.
type Server struct {
	httpServer *http.Server
	engine     QueryEngine
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /v1/catalog, and /v1/observations routes.
func NewServer(addr string, engine QueryEngine, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /v1/observations", s.handleObservations)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// catalogItem is one row of the availability listing.
type catalogItem struct {
	catalog.Entry
	Description string `json:"description"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	entries := catalog.Entries()
	items := make([]catalogItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, catalogItem{Entry: e, Description: e.Describe()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": items})
}

// observationsResponse is the query result envelope. Metadata is present only
// when return_metadata was requested.
type observationsResponse struct {
	Observations []domain.ObservationRecord `json:"observations"`
	Metadata     []domain.SiteRecord        `json:"metadata,omitempty"`
	RowCount     int                        `json:"row_count"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	req, err := bindObservationsRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	obs, md, err := s.engine.Query(r.Context(), req.toSpec())
	if err != nil {
		if query.IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("observations query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive error"})
		return
	}

	resp := observationsResponse{
		Observations: obs.Rows,
		RowCount:     obs.Len(),
	}
	if resp.Observations == nil {
		// Zero matches serialize as an empty array, not null.
		resp.Observations = []domain.ObservationRecord{}
	}
	if md != nil {
		resp.Metadata = md.Rows
		if resp.Metadata == nil {
			resp.Metadata = []domain.SiteRecord{}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

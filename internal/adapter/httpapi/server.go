// Package httpapi exposes the prepared dataset to the presentation layer,
// plus health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/threat-data-etl/internal/domain"
)

// DatasetProvider serves the held dataset and rebuilds it on demand.
type DatasetProvider interface {
	Dataset() *domain.Dataset
	Prepare(ctx context.Context) (*domain.Dataset, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dataset API over HTTP.
type Server struct {
	httpServer *http.Server
	provider   DatasetProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with dataset, health, readiness, and
// metrics routes.
func NewServer(addr string, provider DatasetProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/dataset", s.handleDataset)
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.provider.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleDataset returns the full prepared table. A terminally failed build
// still serves: empty records plus the failure status, so consumers always
// get a well-formed body.
func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	ds := s.provider.Dataset()
	if ds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "dataset not built yet"})
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// summaryResponse is the dataset without its records, for cheap polling.
type summaryResponse struct {
	Summary      domain.DropSummary `json:"summary"`
	Status       domain.Status      `json:"status"`
	StatusDetail string             `json:"status_detail,omitempty"`
	SourceDigest string             `json:"source_digest,omitempty"`
	PreparedAt   time.Time          `json:"prepared_at"`
	Rows         int                `json:"rows"`
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	ds := s.provider.Dataset()
	if ds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "dataset not built yet"})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:      ds.Summary,
		Status:       ds.Status,
		StatusDetail: ds.StatusDetail,
		SourceDigest: ds.SourceDigest,
		PreparedAt:   ds.PreparedAt,
		Rows:         len(ds.Records),
	})
}

// handleRefresh re-runs the preparer. Memoization makes this cheap when the
// source is unchanged, so consumers may call it freely after replacing the
// input file.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ds, err := s.provider.Prepare(r.Context())
	if err != nil {
		s.logger.Warn("refresh build failed", "error", err)
	}
	if ds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "dataset not built yet"})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:      ds.Summary,
		Status:       ds.Status,
		StatusDetail: ds.StatusDetail,
		SourceDigest: ds.SourceDigest,
		PreparedAt:   ds.PreparedAt,
		Rows:         len(ds.Records),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

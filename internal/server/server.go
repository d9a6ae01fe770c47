// Package server exposes the HTTP interface for the enrichment
// service.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/enrich"
)

// Enricher is the pipeline surface the server needs.
type Enricher interface {
	EnrichBatch(ctx context.Context, candidates []bookmark.Candidate) (enrich.BatchResult, error)
}

// Server wires HTTP handlers to the enrichment pipeline and the
// document store.
type Server struct {
	router   chi.Router
	pipeline Enricher
	store    bookmark.DocumentStore
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The
// Prometheus registry backs GET /metrics; pass nil to serve the
// default registry.
func NewServer(pipeline Enricher, store bookmark.DocumentStore, reg *prometheus.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline: pipeline,
		store:    store,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(5 * time.Minute))

	if reg != nil {
		if m, err := newHTTPMetrics(reg); err != nil {
			logger.Warn("http metrics registration failed", zap.Error(err))
		} else {
			r.Use(m.middleware)
		}
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/enrich", s.enrichBatch)
		r.Get("/records/{record_id}", s.getRecord)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only downstream; probe it with a cheap lookup.
	if _, err := s.store.Get(r.Context(), "readiness-probe"); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type enrichRequest struct {
	Bookmarks []bookmark.Candidate `json:"bookmarks"`
}

func (s *Server) enrichBatch(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Bookmarks) == 0 {
		writeError(w, http.StatusBadRequest, "at least one bookmark required")
		return
	}
	for _, c := range req.Bookmarks {
		if c.Source == "" {
			writeError(w, http.StatusBadRequest, "bookmark source is required")
			return
		}
	}

	result, err := s.pipeline.EnrichBatch(r.Context(), req.Bookmarks)
	if err != nil {
		// Per-record failures are part of the report; an error here
		// means the batch itself was cut short.
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "record_id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store lookup failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package httphandler serves the read-only status API: health, registry
// status, recent attempts and Prometheus metrics.
package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noisebridge/baron/internal/application"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// Attempt listing bounds for GET /api/v1/attempts.
const (
	defaultAttemptLimit = 20
	maxAttemptLimit     = 500
)

// Handler is the HTTP driving adapter that serves the status API.
type Handler struct {
	provider    *application.RegistryProvider
	sourceName  string
	promiscuous bool
	audit       driven.AuditStore
	gatherer    prometheus.Gatherer
	clock       application.Clock
	logger      *slog.Logger
}

// NewHandler creates a Handler. audit may be nil when attempt history is
// disabled, and gatherer may be nil to omit /metrics.
func NewHandler(
	provider *application.RegistryProvider,
	sourceName string,
	promiscuous bool,
	audit driven.AuditStore,
	gatherer prometheus.Gatherer,
	clock application.Clock,
	logger *slog.Logger,
) *Handler {
	if clock == nil {
		clock = application.SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		provider:    provider,
		sourceName:  sourceName,
		promiscuous: promiscuous,
		audit:       audit,
		gatherer:    gatherer,
		clock:       clock,
		logger:      logger,
	}
}

// NewRouter creates an http.Handler with all routes registered and wrapped
// with request ID, logging and recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware(logger))
	// Recovery innermost so panics are caught before logging.
	r.Use(recoveryMiddleware(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/status", h.Status)
		r.Get("/attempts", h.ListAttempts)
	})

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Health reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// Status reports the state of the authoritative registry.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Source:      h.sourceName,
		Promiscuous: h.promiscuous,
	}

	if registry := h.provider.Get(); registry != nil {
		resp.Loaded = true
		resp.Codes = registry.Len()
		resp.ReloadedAt = h.provider.ReloadedAt().UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListAttempts returns the most recent attempts, newest first.
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotFound, "attempt history is disabled")
		return
	}

	limit := defaultAttemptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAttemptLimit)
	}

	records, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list attempts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AttemptResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toAttemptResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

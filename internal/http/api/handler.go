// Package api exposes the enrichment cache to page-rendering code as JSON.
package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"goflare.io/broker/internal/models"
)

// Reader is the read API the handler serves.
type Reader interface {
	Get(ctx context.Context, kind models.Kind, limit int) (models.Result, error)
	Lookup(ctx context.Context, kind models.Kind, id string) (models.Result, error)
	Refresh(ctx context.Context, kind models.Kind, limit int) (models.Result, error)
	Stats() models.MetricsSnapshot
}

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

type Handler struct {
	reader  Reader
	checks  map[string]Checker
	logger  *zap.Logger
	mux     *http.ServeMux
	handler http.Handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func NewHandler(reader Reader, checks map[string]Checker, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		reader: reader,
		checks: checks,
		logger: logger,
		mux:    &http.ServeMux{},
	}

	h.mux.HandleFunc("GET /api/{kind}", h.handleList)
	h.mux.HandleFunc("GET /api/{kind}/{id}", h.handleLookup)
	h.mux.HandleFunc("POST /api/{kind}/refresh", h.handleRefresh)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /stats", h.handleStats)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	h.handler = cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(h.mux)

	return h
}

var _ http.Handler = &Handler{}

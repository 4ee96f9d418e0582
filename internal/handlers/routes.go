package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snapcapsule/internal/middleware"
)

// RouterConfig controls optional parts of the router.
type RouterConfig struct {
	MetricsEnabled  bool
	LogHealthChecks bool
}

// NewRouter registers every endpoint on a new router.
func NewRouter(h *Handlers, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(middleware.LoggingConfig{LogHealthChecks: cfg.LogHealthChecks}))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	r.Use(middleware.Compression())

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/resolve", h.ResolveChatMedia).Methods(http.MethodGet)
	api.HandleFunc("/memories/path", h.ResolveMemoryPath).Methods(http.MethodGet)
	api.HandleFunc("/display", h.GetDisplayImage).Methods(http.MethodGet)
	api.HandleFunc("/integrity", h.GetIntegrity).Methods(http.MethodGet)
	api.HandleFunc("/reload", h.Reload).Methods(http.MethodPost)
	api.HandleFunc("/repair", h.StartRepair).Methods(http.MethodPost)
	api.HandleFunc("/revert", h.StartRevert).Methods(http.MethodPost)
	api.HandleFunc("/jobs/current", h.GetCurrentJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/current", h.CancelCurrentJob).Methods(http.MethodDelete)

	return r
}

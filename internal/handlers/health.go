package handlers

import (
	"net/http"
	"runtime"
	"time"

	"snapcapsule/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
	Version    string `json:"version"`
	LoadedAt   string `json:"loadedAt,omitempty"`
	LoadError  string `json:"loadError,omitempty"`
	IndexKeys  int    `json:"indexKeys"`
	JobRunning bool   `json:"jobRunning"`

	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It answers 503
// until the first library load has completed.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.lib.GetHealthStatus()

	response := HealthResponse{
		Ready:        status.Ready,
		Version:      startup.Version,
		LoadError:    status.LoadError,
		IndexKeys:    status.IndexKeys,
		JobRunning:   status.JobRunning,
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if !status.LoadedAt.IsZero() {
		response.LoadedAt = status.LoadedAt.Format(time.RFC3339)
	}

	code := http.StatusOK
	switch {
	case !status.Ready:
		response.Status = statusStarting
		code = http.StatusServiceUnavailable
	case status.LoadError != "":
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	writeJSONStatus(w, code, response)
}

// LivenessCheck always returns 200 while the process is serving.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, startup.GetBuildInfo())
}

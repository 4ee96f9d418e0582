package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"snapcapsule/internal/library"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/repair"
)

// Reload re-reads the export and rebuilds the index.
func (h *Handlers) Reload(w http.ResponseWriter, _ *http.Request) {
	if err := h.lib.Reload(); err != nil {
		logging.Error("Reload failed: %v", err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusOK, h.lib.GetHealthStatus())
}

// StartRepair starts a background repair pass. ?dryRun=true only plans.
func (h *Handlers) StartRepair(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))
	h.startJob(w, func() (library.JobStatus, error) { return h.lib.StartRepair(dryRun) })
}

// StartRevert starts a background revert of all backups.
func (h *Handlers) StartRevert(w http.ResponseWriter, _ *http.Request) {
	h.startJob(w, h.lib.StartRevert)
}

func (h *Handlers) startJob(w http.ResponseWriter, start func() (library.JobStatus, error)) {
	status, err := start()
	if errors.Is(err, library.ErrJobRunning) || errors.Is(err, repair.ErrFolderBusy) {
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Location", "/api/jobs/current")
	writeJSONStatus(w, http.StatusAccepted, status)
}

// GetCurrentJob returns the running or most recent job.
func (h *Handlers) GetCurrentJob(w http.ResponseWriter, _ *http.Request) {
	status, ok := h.lib.CurrentJob()
	if !ok {
		writeJSONError(w, "no job has been started", http.StatusNotFound)
		return
	}
	writeJSONStatus(w, http.StatusOK, status)
}

// CancelCurrentJob asks the running job to stop after its current file.
func (h *Handlers) CancelCurrentJob(w http.ResponseWriter, _ *http.Request) {
	if !h.lib.CancelJob() {
		writeJSONError(w, "no job is running", http.StatusNotFound)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"snapcapsule/internal/archive"
	"snapcapsule/internal/audit"
	"snapcapsule/internal/display"
	"snapcapsule/internal/library"
	"snapcapsule/internal/logging"
)

// ResolvedID is one token of a resolve request.
type ResolvedID struct {
	ID    string `json:"id"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

// ResolveResponse lists the files found for a Media IDs value.
type ResolveResponse struct {
	Paths   []string     `json:"paths"`
	Results []ResolvedID `json:"results"`
}

// ResolveChatMedia resolves ?ids=, a Media IDs string such as "a | b".
func (h *Handlers) ResolveChatMedia(w http.ResponseWriter, r *http.Request) {
	ref := archive.Joined(r.URL.Query().Get("ids"))
	if ref.IsEmpty() {
		writeJSONError(w, "ids parameter is required", http.StatusBadRequest)
		return
	}

	response := ResolveResponse{Paths: h.lib.ResolveChatMedia(ref), Results: []ResolvedID{}}
	for _, id := range ref.IDs() {
		res := ResolvedID{ID: id}
		if paths := h.lib.ResolveChatMedia(archive.List(id)); len(paths) > 0 {
			res.Path, res.Found = paths[0], true
		}
		response.Results = append(response.Results, res)
	}
	writeJSONStatus(w, http.StatusOK, response)
}

// MemoryPathResponse is the file found for a memory date.
type MemoryPathResponse struct {
	Date  string `json:"date"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

// ResolveMemoryPath resolves ?date=, formatted as in memories_history.json.
func (h *Handlers) ResolveMemoryPath(w http.ResponseWriter, r *http.Request) {
	m := archive.Memory{Date: r.URL.Query().Get("date")}
	if _, ok := m.Time(); !ok {
		writeJSONError(w, "date must look like 2006-01-02 15:04:05 UTC", http.StatusBadRequest)
		return
	}

	path, ok := h.lib.ResolveMemoryPath(m)
	response := MemoryPathResponse{Date: m.Date, Path: path, Found: ok}
	if !ok {
		writeJSONStatus(w, http.StatusNotFound, response)
		return
	}
	writeJSONStatus(w, http.StatusOK, response)
}

// GetDisplayImage renders ?path= as a JPEG, compositing companions.
func (h *Handlers) GetDisplayImage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path parameter is required", http.StatusBadRequest)
		return
	}

	img, err := h.lib.DisplayImage(path)
	switch {
	case errors.Is(err, library.ErrOutsideLibrary):
		writeJSONError(w, "path is outside the library", http.StatusForbidden)
		return
	case errors.Is(err, display.ErrDecodeFailure):
		writeJSONError(w, "no displayable image", http.StatusNotFound)
		return
	case err != nil:
		logging.Error("Display %s failed: %v", path, err)
		writeJSONError(w, "failed to render image", http.StatusInternalServerError)
		return
	}

	quality, _ := strconv.Atoi(r.URL.Query().Get("quality"))
	var buf bytes.Buffer
	if err := display.EncodeJPEG(&buf, img, quality); err != nil {
		logging.Error("Encode %s failed: %v", path, err)
		writeJSONError(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Debug("Write display image: %v", err)
	}
}

// CounterResponse is one category of the integrity report.
type CounterResponse struct {
	Total   int     `json:"total"`
	Linked  int     `json:"linked"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// IntegrityResponse is the integrity report.
type IntegrityResponse struct {
	Chats    CounterResponse `json:"chats"`
	Memories CounterResponse `json:"memories"`
}

func counterResponse(c audit.Counter) CounterResponse {
	return CounterResponse{Total: c.Total, Linked: c.Linked(), Missing: c.Missing, Percent: c.Percent()}
}

// GetIntegrity reports how many referenced media files are present.
func (h *Handlers) GetIntegrity(w http.ResponseWriter, _ *http.Request) {
	report := h.lib.Audit()
	writeJSONStatus(w, http.StatusOK, IntegrityResponse{
		Chats:    counterResponse(report.Chats),
		Memories: counterResponse(report.Memories),
	})
}

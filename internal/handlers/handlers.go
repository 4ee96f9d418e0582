package handlers

import (
	"image"

	"snapcapsule/internal/archive"
	"snapcapsule/internal/audit"
	"snapcapsule/internal/library"
)

// Library is the session the handlers serve. *library.Library implements it.
type Library interface {
	ResolveChatMedia(ref archive.MediaRef) []string
	ResolveMemoryPath(m archive.Memory) (string, bool)
	DisplayImage(path string) (image.Image, error)
	Audit() audit.Report
	Reload() error
	StartRepair(dryRun bool) (library.JobStatus, error)
	StartRevert() (library.JobStatus, error)
	CurrentJob() (library.JobStatus, bool)
	CancelJob() bool
	GetHealthStatus() library.HealthStatus
}

// Handlers serves the HTTP API.
type Handlers struct {
	lib Library
}

// New creates Handlers over lib.
func New(lib Library) *Handlers {
	return &Handlers{lib: lib}
}

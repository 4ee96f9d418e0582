package library

import "time"

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready      bool      `json:"ready"`
	LoadedAt   time.Time `json:"loadedAt,omitempty"`
	LoadError  string    `json:"loadError,omitempty"`
	IndexKeys  int       `json:"indexKeys"`
	JobRunning bool      `json:"jobRunning"`
}

// IsReady reports whether a library load has completed.
func (l *Library) IsReady() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index != nil
}

// GetHealthStatus returns detailed health information.
func (l *Library) GetHealthStatus() HealthStatus {
	l.mu.RLock()
	status := HealthStatus{
		Ready:     l.index != nil,
		LoadedAt:  l.loadedAt,
		IndexKeys: l.index.Len(),
	}
	if l.loadErr != nil {
		status.LoadError = l.loadErr.Error()
	}
	l.mu.RUnlock()

	if job, ok := l.CurrentJob(); ok {
		status.JobRunning = job.State == JobRunning
	}
	return status
}

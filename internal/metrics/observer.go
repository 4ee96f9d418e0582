package metrics

import (
	"time"

	"snapcapsule/internal/filesystem"
)

type filesystemObserver struct{}

// NewFilesystemObserver returns the observer registered with
// filesystem.SetObserver at startup.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetry(op, volume string, event filesystem.RetryEvent) {
	switch event {
	case filesystem.EventStale:
		FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
	case filesystem.EventRetry:
		FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
	case filesystem.EventRecovered:
		FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
	case filesystem.EventExhausted:
		FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
	}
}

func (filesystemObserver) ObserveDuration(op, volume string, elapsed time.Duration) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(elapsed.Seconds())
}

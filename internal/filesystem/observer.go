package filesystem

import "time"

// RetryEvent is what happened during one step of a retried operation.
type RetryEvent int

const (
	// EventStale is an ESTALE result from the operation.
	EventStale RetryEvent = iota
	// EventRetry is a backoff before another attempt.
	EventRetry
	// EventRecovered is a success after at least one stale result.
	EventRecovered
	// EventExhausted is the retry budget running out.
	EventExhausted
)

// Observer receives retry events from the wrapped operations. The
// Prometheus implementation lives in the metrics package.
type Observer interface {
	// ObserveRetry is called with op ("stat", "readdir", "rename") and the
	// volume label resolved for the path.
	ObserveRetry(op, volume string, event RetryEvent)
	// ObserveDuration is called once per wrapped call with its total time.
	ObserveDuration(op, volume string, elapsed time.Duration)
}

var defaultObserver Observer

// SetObserver registers o for every retried operation. nil disables it.
func SetObserver(o Observer) {
	defaultObserver = o
}

// nopObserver drops everything; used when no observer is registered.
type nopObserver struct{}

func (nopObserver) ObserveRetry(string, string, RetryEvent) {}
func (nopObserver) ObserveDuration(string, string, time.Duration) {}

func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}

// Package metrics provides Prometheus instrumentation for snapcapsule.
//
// All metrics are registered through promauto at package init and are
// prefixed with "snapcapsule_". InitializeMetrics pre-populates the label
// combinations so dashboards see zero values before the first event.
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight gauge.
//   - Index: build count and duration, entries per directory, lookup hits
//     and misses.
//   - Integrity: total and missing references per category, linked ratio.
//   - Repair: passes by operation and status, files by action and outcome,
//     reverted files, backup count and a running gauge.
//   - Transcoder: ffprobe and ffmpeg invocations by operation.
//   - Display: composited renders and decode time.
//   - Filesystem: retry attempts, successes, failures and stale handles.
//
// The Collector polls a StatsProvider (the library session) on an interval
// so gauges stay current while the server is idle.
package metrics

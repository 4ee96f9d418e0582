package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapcapsule_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapcapsule_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Media index metrics
var (
	IndexBuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapcapsule_index_builds_total",
			Help: "Total number of media index builds",
		},
	)

	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapcapsule_index_build_duration_seconds",
			Help:    "Duration of media index builds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	IndexEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapcapsule_index_entries",
			Help: "Number of keys in the most recent media index by directory role",
		},
		[]string{"dir"},
	)

	IndexLastBuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapcapsule_index_last_build_timestamp_seconds",
			Help: "Unix timestamp of the last media index build",
		},
	)

	IndexLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_index_lookups_total",
			Help: "Total number of reference lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// Integrity metrics
var (
	IntegrityReferences = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapcapsule_integrity_references",
			Help: "Reference counts from the last integrity audit by category and state",
		},
		[]string{"category", "state"},
	)

	IntegrityLinkedRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapcapsule_integrity_linked_ratio",
			Help: "Fraction of references that resolved to a file, by category",
		},
		[]string{"category"},
	)
)

// Repair metrics
var (
	RepairRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_repair_runs_total",
			Help: "Total number of repair and revert passes by operation and status",
		},
		[]string{"operation", "status"},
	)

	RepairFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_repair_files_total",
			Help: "Total number of files handled by the repair planner by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	RepairRevertedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapcapsule_repair_reverted_files_total",
			Help: "Total number of originals restored from backup",
		},
	)

	RepairIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapcapsule_repair_is_running",
			Help: "Whether a repair or revert pass is currently running (1 = running, 0 = idle)",
		},
	)

	RepairBackupFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapcapsule_repair_backup_files",
			Help: "Number of original files currently held in backup directories",
		},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_transcoder_jobs_total",
			Help: "Total number of external media tool invocations by operation and status",
		},
		[]string{"operation", "status"},
	)

	TranscoderJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapcapsule_transcoder_job_duration_seconds",
			Help:    "Duration of external media tool invocations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"operation"},
	)
)

// Display metrics
var (
	DisplayRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_display_renders_total",
			Help: "Total number of display images produced by result",
		},
		[]string{"result"},
	)

	DisplayRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapcapsule_display_render_duration_seconds",
			Help:    "Time to decode and composite a display image in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapcapsule_filesystem_retry_duration_seconds",
			Help:    "Total time spent on retried filesystem operations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcapsule_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)
)

package metrics

// Label values shared between InitializeMetrics and the packages that record
// into the vectors.
var (
	IntegrityCategories = []string{"chats", "memories"}
	RepairActions       = []string{"video", "audio", "jpeg", "none"}
	RepairOutcomes      = []string{"fixed", "skipped", "failed"}
	TranscoderOps       = []string{"probe", "reencode_video", "extract_audio"}
	Volumes             = []string{"chat_media", "memories", "unknown"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, dir := range []string{"chat_media", "memories"} {
		IndexEntries.WithLabelValues(dir)
	}

	for _, kind := range []string{"chat", "memory"} {
		for _, result := range []string{"hit", "miss"} {
			IndexLookupsTotal.WithLabelValues(kind, result)
		}
	}

	for _, category := range IntegrityCategories {
		IntegrityReferences.WithLabelValues(category, "total")
		IntegrityReferences.WithLabelValues(category, "missing")
		IntegrityLinkedRatio.WithLabelValues(category)
	}

	for _, op := range []string{"repair", "revert"} {
		for _, status := range []string{"success", "error", "cancelled"} {
			RepairRunsTotal.WithLabelValues(op, status)
		}
	}

	for _, action := range RepairActions {
		for _, outcome := range RepairOutcomes {
			RepairFilesTotal.WithLabelValues(action, outcome)
		}
	}

	for _, op := range TranscoderOps {
		TranscoderJobsTotal.WithLabelValues(op, "success")
		TranscoderJobsTotal.WithLabelValues(op, "error")
		TranscoderJobDuration.WithLabelValues(op)
	}

	for _, result := range []string{"composited", "primary", "error"} {
		DisplayRendersTotal.WithLabelValues(result)
	}

	// Filesystem retry metrics (per retry-operation x volume)
	for _, op := range []string{"stat", "readdir", "rename"} {
		for _, vol := range Volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}

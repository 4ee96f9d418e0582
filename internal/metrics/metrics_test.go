package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"snapcapsule/internal/filesystem"
)

type staticStats struct {
	stats Stats
}

func (s staticStats) GetStats() Stats { return s.stats }

func TestRecordIntegrity(t *testing.T) {
	RecordIntegrity("chats", 10, 3)

	if got := testutil.ToFloat64(IntegrityReferences.WithLabelValues("chats", "total")); got != 10 {
		t.Errorf("total = %v, want 10", got)
	}
	if got := testutil.ToFloat64(IntegrityReferences.WithLabelValues("chats", "missing")); got != 3 {
		t.Errorf("missing = %v, want 3", got)
	}
	if got := testutil.ToFloat64(IntegrityLinkedRatio.WithLabelValues("chats")); got != 0.7 {
		t.Errorf("ratio = %v, want 0.7", got)
	}
}

func TestRecordIntegrityZeroTotal(t *testing.T) {
	RecordIntegrity("memories", 0, 0)

	if got := testutil.ToFloat64(IntegrityLinkedRatio.WithLabelValues("memories")); got != 0 {
		t.Errorf("ratio = %v, want 0", got)
	}
}

func TestCollectorCollect(t *testing.T) {
	c := NewCollector(staticStats{Stats{
		ChatMediaEntries: 42,
		MemoryEntries:    7,
		BackupFiles:      2,
	}}, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(IndexEntries.WithLabelValues("chat_media")); got != 42 {
		t.Errorf("chat_media entries = %v, want 42", got)
	}
	if got := testutil.ToFloat64(IndexEntries.WithLabelValues("memories")); got != 7 {
		t.Errorf("memories entries = %v, want 7", got)
	}
	if got := testutil.ToFloat64(RepairBackupFiles); got != 2 {
		t.Errorf("backup files = %v, want 2", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStopTwice(t *testing.T) {
	c := NewCollector(staticStats{}, time.Millisecond)
	c.Start()
	c.Stop()
	c.Stop()
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()
	before := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "memories"))

	obs.ObserveRetry("stat", "memories", filesystem.EventRetry)
	obs.ObserveRetry("stat", "memories", filesystem.EventRecovered)
	obs.ObserveDuration("stat", "memories", 100*time.Millisecond)

	after := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "memories"))
	if after != before+1 {
		t.Errorf("retry attempts = %v, want %v", after, before+1)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(RepairFilesTotal); n != len(RepairActions)*len(RepairOutcomes) {
		t.Errorf("repair files series = %d, want %d", n, len(RepairActions)*len(RepairOutcomes))
	}
	if n := testutil.CollectAndCount(IntegrityLinkedRatio); n != len(IntegrityCategories) {
		t.Errorf("linked ratio series = %d, want %d", n, len(IntegrityCategories))
	}
}

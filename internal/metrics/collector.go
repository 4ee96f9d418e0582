package metrics

import (
	"sync"
	"time"

	"snapcapsule/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	ChatMediaEntries int
	MemoryEntries    int
	ChatRefsTotal    int
	ChatRefsMissing  int
	MemoriesTotal    int
	MemoriesMissing  int
	BackupFiles      int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	IndexEntries.WithLabelValues("chat_media").Set(float64(stats.ChatMediaEntries))
	IndexEntries.WithLabelValues("memories").Set(float64(stats.MemoryEntries))
	RecordIntegrity("chats", stats.ChatRefsTotal, stats.ChatRefsMissing)
	RecordIntegrity("memories", stats.MemoriesTotal, stats.MemoriesMissing)
	RepairBackupFiles.Set(float64(stats.BackupFiles))

	logging.Debug("Metrics collected: chat refs=%d/%d missing, memories=%d/%d missing, backups=%d",
		stats.ChatRefsMissing, stats.ChatRefsTotal, stats.MemoriesMissing, stats.MemoriesTotal, stats.BackupFiles)
}

// RecordIntegrity publishes one audit category's counts.
func RecordIntegrity(category string, total, missing int) {
	IntegrityReferences.WithLabelValues(category, "total").Set(float64(total))
	IntegrityReferences.WithLabelValues(category, "missing").Set(float64(missing))
	ratio := 0.0
	if total > 0 {
		ratio = float64(total-missing) / float64(total)
	}
	IntegrityLinkedRatio.WithLabelValues(category).Set(ratio)
}

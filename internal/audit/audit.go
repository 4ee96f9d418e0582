// Package audit measures how much referenced media is present on disk.
package audit

import (
	"fmt"

	"snapcapsule/internal/archive"
	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/linker"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/mediaindex"
	"snapcapsule/internal/metrics"
)

// Counter holds the reference counts for one category.
type Counter struct {
	Total   int `json:"total"`
	Missing int `json:"missing"`
}

// Linked returns the number of references that resolved.
func (c Counter) Linked() int {
	return c.Total - c.Missing
}

// Percent returns the linked share in percent. An empty category is 0%.
func (c Counter) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Linked()) * 100 / float64(c.Total)
}

func (c Counter) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", c.Linked(), c.Total, c.Percent())
}

// Report is the result of one audit pass.
type Report struct {
	Chats    Counter `json:"chats"`
	Memories Counter `json:"memories"`
}

// Audit counts every chat media token and every memory, and how many of
// each do not resolve to a file. It never modifies anything.
func Audit(idx *mediaindex.Index, chatRefs []archive.MediaRef, memories []archive.Memory) Report {
	var report Report
	l := linker.New(idx)

	for _, ref := range chatRefs {
		for _, id := range ref.IDs() {
			report.Chats.Total++
			if !l.Contains(id) {
				report.Chats.Missing++
			}
		}
	}

	for _, m := range memories {
		report.Memories.Total++
		path, ok := l.ResolveMemoryPath(m)
		if !ok || !filesystem.Exists(path) {
			report.Memories.Missing++
		}
	}

	metrics.RecordIntegrity("chats", report.Chats.Total, report.Chats.Missing)
	metrics.RecordIntegrity("memories", report.Memories.Total, report.Memories.Missing)
	logging.Debug("Integrity audit: chats %s, memories %s", report.Chats, report.Memories)

	return report
}

// Package linker resolves chat and memory media references against a
// media index.
package linker

import (
	"snapcapsule/internal/archive"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/mediaindex"
	"snapcapsule/internal/metrics"
)

// Linker resolves references against one index build.
type Linker struct {
	index *mediaindex.Index
}

// New creates a Linker over idx. A nil index resolves nothing.
func New(idx *mediaindex.Index) *Linker {
	return &Linker{index: idx}
}

// ResolveChatMedia returns the paths of the ids in ref that are present in
// the index, in reference order. Unknown ids are dropped.
func (l *Linker) ResolveChatMedia(ref archive.MediaRef) []string {
	ids := ref.IDs()
	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		path, ok := l.index.Lookup(id)
		if !ok {
			metrics.IndexLookupsTotal.WithLabelValues("chat", "miss").Inc()
			logging.Debug("Chat media %q not found in index", id)
			continue
		}
		metrics.IndexLookupsTotal.WithLabelValues("chat", "hit").Inc()
		paths = append(paths, path)
	}
	return paths
}

// ResolveMemoryPath returns the file saved for m, looked up by the
// YYYY-MM-DD_HH-MM-SS prefix derived from its date.
func (l *Linker) ResolveMemoryPath(m archive.Memory) (string, bool) {
	prefix, ok := m.FilePrefix()
	if !ok {
		logging.Debug("Memory date %q is not parseable", m.Date)
		return "", false
	}

	path, ok := l.index.Lookup(prefix)
	if !ok {
		metrics.IndexLookupsTotal.WithLabelValues("memory", "miss").Inc()
		logging.Debug("No file for memory %s", m.Describe())
		return "", false
	}
	metrics.IndexLookupsTotal.WithLabelValues("memory", "hit").Inc()
	return path, true
}

// Contains reports whether a single id resolves.
func (l *Linker) Contains(id string) bool {
	return l.index.Has(id)
}

package mediaindex

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/metrics"
)

// BackupDirName is the per-folder directory holding repair originals.
const BackupDirName = "repair_backups"

// exactRank marks a full-filename key; derived keys never replace it.
const exactRank = 1 << 8

// Entry is one physical file discovered during a scan.
type Entry struct {
	Path      string
	Name      string
	Dir       string
	ContentID string
	Variant   VariantKind
}

type slot struct {
	entry int
	rank  int
}

// Index maps identity keys to media files. It is immutable once built and
// safe for concurrent reads.
type Index struct {
	dirs    []string
	entries []Entry
	keys    map[string]slot
}

// Build scans dirs in order and indexes every regular, non-hidden file.
// Missing directories are skipped; unreadable ones are an error.
func Build(dirs ...string) (*Index, error) {
	start := time.Now()
	idx := &Index{keys: make(map[string]slot)}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		if err := idx.scan(abs); err != nil {
			return nil, err
		}
	}

	duration := time.Since(start)
	metrics.IndexBuildsTotal.Inc()
	metrics.IndexBuildDuration.Observe(duration.Seconds())
	metrics.IndexLastBuildTimestamp.SetToCurrentTime()
	logging.Info("Media index built: %d files, %d keys in %v", len(idx.entries), len(idx.keys), duration)

	return idx, nil
}

func (idx *Index) scan(dir string) error {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("Media directory %s does not exist, skipping", dir)
			return nil
		}
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	idx.dirs = append(idx.dirs, dir)

	// os.ReadDir returns entries sorted by name, which keeps tie-breaks stable.
	for _, de := range entries {
		name := de.Name()
		if strings.HasPrefix(name, ".") || de.IsDir() {
			continue
		}
		idx.add(dir, name)
	}
	return nil
}

func (idx *Index) add(dir, name string) {
	ident := ParseFilename(name)
	n := len(idx.entries)
	idx.entries = append(idx.entries, Entry{
		Path:      filepath.Join(dir, name),
		Name:      name,
		Dir:       dir,
		ContentID: ident.ContentID,
		Variant:   ident.Variant,
	})

	if _, exists := idx.keys[name]; !exists {
		idx.keys[name] = slot{entry: n, rank: exactRank}
	}

	rank := ident.Variant.rank()
	for _, key := range []string{ident.Stem, ident.ContentID, ident.Timestamp} {
		if key == "" {
			continue
		}
		if cur, exists := idx.keys[key]; exists && cur.rank >= rank {
			continue
		}
		idx.keys[key] = slot{entry: n, rank: rank}
	}
}

// Lookup returns the path registered for key.
func (idx *Index) Lookup(key string) (string, bool) {
	e, ok := idx.Entry(key)
	if !ok {
		return "", false
	}
	return e.Path, true
}

// Entry returns the file registered for key.
func (idx *Index) Entry(key string) (Entry, bool) {
	if idx == nil {
		return Entry{}, false
	}
	s, ok := idx.keys[key]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[s.entry], true
}

// Has reports whether key is registered.
func (idx *Index) Has(key string) bool {
	_, ok := idx.Lookup(key)
	return ok
}

// Len returns the number of registered keys.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}

// Keys returns all registered keys in sorted order.
func (idx *Index) Keys() []string {
	if idx == nil {
		return nil
	}
	keys := make([]string, 0, len(idx.keys))
	for k := range idx.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the scanned files in scan order.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Dirs returns the directories that were scanned.
func (idx *Index) Dirs() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, len(idx.dirs))
	copy(out, idx.dirs)
	return out
}

// CountIn returns the number of files scanned from dir.
func (idx *Index) CountIn(dir string) int {
	if idx == nil || dir == "" {
		return 0
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range idx.entries {
		if e.Dir == abs {
			count++
		}
	}
	return count
}

// Equal reports whether both indexes map the same keys to the same paths.
func (idx *Index) Equal(other *Index) bool {
	if idx.Len() != other.Len() {
		return false
	}
	if idx == nil || other == nil {
		return true
	}
	for key := range idx.keys {
		a, _ := idx.Lookup(key)
		b, ok := other.Lookup(key)
		if !ok || a != b {
			return false
		}
	}
	return true
}

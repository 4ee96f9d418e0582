package library

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"snapcapsule/internal/archive"
	"snapcapsule/internal/audit"
	"snapcapsule/internal/display"
	"snapcapsule/internal/linker"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/mediaindex"
	"snapcapsule/internal/metrics"
	"snapcapsule/internal/repair"
)

// ErrOutsideLibrary is returned for paths outside the media folders.
var ErrOutsideLibrary = errors.New("path is outside the library")

// Config locates an export on disk.
type Config struct {
	DataRoot     string
	ChatMediaDir string
	MemoriesDir  string
}

// Library owns one loaded export: its records and the media index built
// over its folders. Reload replaces both wholesale.
type Library struct {
	cfg      Config
	tool     repair.MediaTool
	resolver *display.Resolver

	mu       sync.RWMutex
	index    *mediaindex.Index
	chats    archive.ChatHistory
	memories []archive.Memory
	loadedAt time.Time
	loadErr  error

	jobs jobTracker
}

// New creates a Library. Nothing is read until Reload.
func New(cfg Config, tool repair.MediaTool, resolver *display.Resolver) *Library {
	if resolver == nil {
		resolver = display.NewResolver(display.Options{})
	}
	return &Library{
		cfg:      cfg,
		tool:     tool,
		resolver: resolver,
		chats:    archive.ChatHistory{},
	}
}

// MediaDirs returns the configured media folders.
func (l *Library) MediaDirs() []string {
	var dirs []string
	for _, d := range []string{l.cfg.ChatMediaDir, l.cfg.MemoriesDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Reload reads the records and rebuilds the index. Readers keep seeing
// the previous state until the new one is complete.
func (l *Library) Reload() error {
	start := time.Now()

	chats, err := loadOptional(archive.ExportPath(l.cfg.DataRoot, archive.ChatHistoryFile), archive.LoadChatHistory)
	if err != nil {
		return l.failLoad(err)
	}
	memories, err := loadOptional(archive.ExportPath(l.cfg.DataRoot, archive.MemoriesFile), archive.LoadMemories)
	if err != nil {
		return l.failLoad(err)
	}
	idx, err := mediaindex.Build(l.MediaDirs()...)
	if err != nil {
		return l.failLoad(err)
	}
	if chats == nil {
		chats = archive.ChatHistory{}
	}

	l.mu.Lock()
	l.index = idx
	l.chats = chats
	l.memories = memories
	l.loadedAt = time.Now()
	l.loadErr = nil
	l.mu.Unlock()

	metrics.IndexEntries.WithLabelValues("chat_media").Set(float64(idx.CountIn(l.cfg.ChatMediaDir)))
	metrics.IndexEntries.WithLabelValues("memories").Set(float64(idx.CountIn(l.cfg.MemoriesDir)))
	logging.Info("Library loaded in %v: %d conversations, %d memories, %d index keys",
		time.Since(start).Round(time.Millisecond), len(chats), len(memories), idx.Len())
	return nil
}

func (l *Library) failLoad(err error) error {
	l.mu.Lock()
	l.loadErr = err
	l.mu.Unlock()
	return fmt.Errorf("reload library: %w", err)
}

// loadOptional treats a missing record file as empty.
func loadOptional[T any](path string, load func(string) (T, error)) (T, error) {
	v, err := load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("%s not found, skipping", path)
		var zero T
		return zero, nil
	}
	return v, err
}

// Index returns the current media index.
func (l *Library) Index() *mediaindex.Index {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index
}

// Chats returns the loaded chat history.
func (l *Library) Chats() archive.ChatHistory {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chats
}

// Memories returns the loaded memories.
func (l *Library) Memories() []archive.Memory {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.memories
}

// LoadedAt returns when the last successful Reload finished.
func (l *Library) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

// ResolveChatMedia resolves a message's media reference.
func (l *Library) ResolveChatMedia(ref archive.MediaRef) []string {
	return linker.New(l.Index()).ResolveChatMedia(ref)
}

// ResolveMemoryPath resolves a memory to its file.
func (l *Library) ResolveMemoryPath(m archive.Memory) (string, bool) {
	return linker.New(l.Index()).ResolveMemoryPath(m)
}

// DisplayImage renders path, which must lie inside a media folder.
func (l *Library) DisplayImage(path string) (image.Image, error) {
	if !l.Contains(path) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideLibrary, path)
	}
	return l.resolver.GetDisplayImage(path)
}

// Contains reports whether path lies directly inside a media folder.
func (l *Library) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	parent := filepath.Dir(abs)
	for _, dir := range l.MediaDirs() {
		d, err := filepath.Abs(dir)
		if err == nil && d == parent {
			return true
		}
	}
	return false
}

// Audit reports how many referenced media files are present.
func (l *Library) Audit() audit.Report {
	l.mu.RLock()
	idx, chats, memories := l.index, l.chats, l.memories
	l.mu.RUnlock()
	return audit.Audit(idx, chats.MediaRefs(), memories)
}

// Repair runs a repair pass over the media folders and reloads if any
// file changed.
func (l *Library) Repair(ctx context.Context, dryRun bool, onProgress func(repair.Progress)) (repair.Tally, error) {
	tally, err := l.planner(dryRun).RunRepair(ctx, l.MediaDirs(), onProgress)
	l.reloadIf(tally.Changed())
	return tally, err
}

// RepairFiles repairs an explicit list of files and reloads if any changed.
func (l *Library) RepairFiles(ctx context.Context, paths []string, onProgress func(repair.Progress)) (repair.Tally, error) {
	tally, err := l.planner(false).RepairFiles(ctx, paths, onProgress)
	l.reloadIf(tally.Changed())
	return tally, err
}

// Revert restores all backups and reloads if any were restored.
func (l *Library) Revert(ctx context.Context, onLog func(string)) (int, error) {
	n, err := l.planner(false).RunRevert(ctx, l.MediaDirs(), onLog)
	l.reloadIf(n > 0)
	return n, err
}

func (l *Library) planner(dryRun bool) *repair.Planner {
	return repair.New(l.tool, repair.Options{DryRun: dryRun})
}

func (l *Library) reloadIf(changed bool) {
	if !changed {
		return
	}
	if err := l.Reload(); err != nil {
		logging.Error("Reload after repair failed: %v", err)
	}
}

// GetStats implements metrics.StatsProvider.
func (l *Library) GetStats() metrics.Stats {
	report := l.Audit()
	idx := l.Index()
	return metrics.Stats{
		ChatMediaEntries: idx.CountIn(l.cfg.ChatMediaDir),
		MemoryEntries:    idx.CountIn(l.cfg.MemoriesDir),
		ChatRefsTotal:    report.Chats.Total,
		ChatRefsMissing:  report.Chats.Missing,
		MemoriesTotal:    report.Memories.Total,
		MemoriesMissing:  report.Memories.Missing,
		BackupFiles:      repair.BackupCount(l.MediaDirs()...),
	}
}

// Close cancels any running job and waits for it to stop.
func (l *Library) Close() {
	l.jobs.cancelAndWait()
}

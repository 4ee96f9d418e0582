// Package filesystem provides utilities for filesystem operations with retry logic for NFS
package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"snapcapsule/internal/logging"
)

// VolumeResolver maps file paths to known volume names for metric labeling.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// mounts is sorted by path length descending for longest-prefix matching
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute path with trailing slash (e.g., "/export/chat_media/")
	name string // volume label (e.g., "chat_media")
}

// NewVolumeResolver creates a resolver from a map of volume name → path.
//
//	NewVolumeResolver(map[string]string{
//	    "chat_media": "/export/chat_media",
//	    "memories":   "/export/memories",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		if path == "" {
			continue
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		if len(mounts[i].path) != len(mounts[j].path) {
			return len(mounts[i].path) > len(mounts[j].path)
		}
		return mounts[i].name < mounts[j].name
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for a given file path.
// Returns "unknown" if the path doesn't match any configured volume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+string(filepath.Separator), mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

// defaultResolver is the package-level resolver set at startup
var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	// If nil, the package-level default is used.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn until it succeeds, fails with a non-ESTALE error, or the
// retry budget is exhausted.
func withRetry(op, path string, config RetryConfig, fn func() error) error {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	defer func() { obs.ObserveDuration(op, volume, time.Since(start)) }()

	backoff := config.InitialBackoff
	err := fn()
	for attempt := 1; isNFSStaleError(err); attempt++ {
		obs.ObserveRetry(op, volume, EventStale)
		if attempt > config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			obs.ObserveRetry(op, volume, EventExhausted)
			return err
		}

		obs.ObserveRetry(op, volume, EventRetry)
		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt, config.MaxRetries)
		time.Sleep(backoff)
		backoff = min(backoff*2, config.MaxBackoff)

		if err = fn(); err == nil {
			logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
			obs.ObserveRetry(op, volume, EventRecovered)
		}
	}
	return err
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var err error
		info, err = os.Stat(path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ReadDirWithRetry performs os.ReadDir with retry logic. Entries are sorted
// by filename.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	var entries []os.DirEntry
	err := withRetry("readdir", path, config, func() error {
		var err error
		entries, err = os.ReadDir(path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// RenameWithRetry performs os.Rename with retry logic.
func RenameWithRetry(oldPath, newPath string, config RetryConfig) error {
	return withRetry("rename", oldPath, config, func() error {
		return os.Rename(oldPath, newPath)
	})
}

// Exists reports whether path exists. Errors other than not-exist are
// treated as existing so callers never clobber something they cannot see.
func Exists(path string) bool {
	_, err := StatWithRetry(path, DefaultRetryConfig())
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

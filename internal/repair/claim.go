package repair

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/logging"
)

// LockFileName marks a folder as claimed by a repair or revert pass in some
// process. The leading dot keeps it out of the media index and the
// candidate scan. A lock left behind by a crashed pass must be removed by
// hand.
const LockFileName = ".snapcapsule.lock"

// claims holds the folders currently owned by a pass in this process.
var claims = struct {
	mu   sync.Mutex
	held map[string]bool
}{held: make(map[string]bool)}

// claimFolders takes an exclusive claim on every folder, or on none of them.
// The claim is held in memory and as a lock file inside each existing
// folder, so a CLI pass and a server job over the same export exclude each
// other. The returned func releases the claim.
func claimFolders(folders []string) (func(), error) {
	keys := make([]string, 0, len(folders))
	seen := make(map[string]bool)
	for _, f := range folders {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		if !seen[abs] {
			seen[abs] = true
			keys = append(keys, abs)
		}
	}
	sort.Strings(keys)

	claims.mu.Lock()
	defer claims.mu.Unlock()

	for _, k := range keys {
		if claims.held[k] {
			return nil, fmt.Errorf("%w: %s", ErrFolderBusy, k)
		}
	}

	var locks []string
	unlock := func() {
		for _, lock := range locks {
			if err := os.Remove(lock); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logging.Warn("failed to remove lock file %s: %v", lock, err)
			}
		}
	}
	for _, k := range keys {
		lock, err := lockFolder(k)
		if err != nil {
			unlock()
			return nil, err
		}
		if lock != "" {
			locks = append(locks, lock)
		}
	}

	for _, k := range keys {
		claims.held[k] = true
	}

	return func() {
		claims.mu.Lock()
		defer claims.mu.Unlock()
		unlock()
		for _, k := range keys {
			delete(claims.held, k)
		}
	}, nil
}

// lockFolder creates the lock file in folder. A missing folder needs no
// lock and yields "".
func lockFolder(folder string) (string, error) {
	lock := filepath.Join(folder, LockFileName)
	f, err := os.OpenFile(lock, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		return "", fmt.Errorf("%w: %s (lock file %s)", ErrFolderBusy, folder, lock)
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("lock %s: %w", folder, err)
	}

	_, werr := fmt.Fprintf(f, "pid %d since %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := f.Close(); werr == nil {
		werr = err
	}
	if werr != nil {
		_ = os.Remove(lock)
		return "", fmt.Errorf("lock %s: %w", folder, werr)
	}
	return lock, nil
}

// IsBusy reports whether folder is claimed by a running pass in this or
// another process.
func IsBusy(folder string) bool {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return false
	}
	claims.mu.Lock()
	held := claims.held[abs]
	claims.mu.Unlock()
	return held || filesystem.Exists(filepath.Join(abs, LockFileName))
}

// AnyBusy reports the first of folders that IsBusy.
func AnyBusy(folders ...string) (string, bool) {
	for _, f := range folders {
		if IsBusy(f) {
			return f, true
		}
	}
	return "", false
}

package repair

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/mediatypes"
	"snapcapsule/internal/metrics"
)

// revertFolder restores every backup in folder. It stops between files
// when ctx is cancelled.
func (p *Planner) revertFolder(ctx context.Context, folder string, onLog func(string)) (int, error) {
	backupDir := filepath.Join(folder, BackupDirName)
	entries, err := filesystem.ReadDirWithRetry(backupDir, p.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", backupDir, err)
	}

	reverted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return reverted, err
		}

		name := e.Name()
		if err := p.restore(folder, name); err != nil {
			logging.Error("FAILED revert %s: %v", name, err)
			emit(onLog, fmt.Sprintf("FAILED revert %s: %v", name, err))
			continue
		}
		reverted++
		metrics.RepairRevertedFilesTotal.Inc()
		logging.Info("REVERTED %s", name)
		emit(onLog, "REVERTED "+name)
	}

	if remaining, err := os.ReadDir(backupDir); err == nil && len(remaining) == 0 {
		if err := os.Remove(backupDir); err != nil {
			logging.Warn("failed to remove empty backup dir %s: %v", backupDir, err)
		}
	}
	return reverted, nil
}

// restore deletes the repaired siblings of one backup and moves the
// backup back to its original name.
func (p *Planner) restore(folder, name string) error {
	stem := mediatypes.Stem(name)
	ext := filepath.Ext(name)

	for target := range mediatypes.TargetExtensions {
		if strings.EqualFold(target, ext) {
			continue
		}
		sibling := filepath.Join(folder, stem+target)
		if err := os.Remove(sibling); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove repaired %s: %w", filepath.Base(sibling), err)
		}
	}

	backup := filepath.Join(folder, BackupDirName, name)
	if err := filesystem.RenameWithRetry(backup, filepath.Join(folder, name), p.retry); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}
	return nil
}

func emit(onLog func(string), line string) {
	if onLog != nil {
		onLog(line)
	}
}

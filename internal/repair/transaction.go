package repair

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/mediaindex"
	"snapcapsule/internal/mediatypes"
	"snapcapsule/internal/signature"
)

// BackupDirName is the per-folder directory holding originals. Its
// contents are the undo log.
const BackupDirName = mediaindex.BackupDirName

// scratchPattern names the temporary directory an in-flight repair writes
// into. The leading dot keeps it out of the media index.
const scratchPattern = ".repair-*"

// plan holds the paths one repair touches.
type plan struct {
	path   string
	folder string
	backup string
	dest   string
	mtime  time.Time
}

// newPlan validates that path can be repaired to targetExt without
// overwriting anything.
func (p *Planner) newPlan(path, targetExt string) (*plan, error) {
	info, err := filesystem.StatWithRetry(path, p.retry)
	if err != nil {
		return nil, newError(ErrTransactionFailure, path, err)
	}

	folder := filepath.Dir(path)
	name := filepath.Base(path)
	stem := mediatypes.Stem(path)
	pl := &plan{
		path:   path,
		folder: folder,
		backup: filepath.Join(folder, BackupDirName, name),
		dest:   filepath.Join(folder, stem+targetExt),
		mtime:  info.ModTime(),
	}
	if ts, ok := mediaindex.ParseTimestamp(name); ok {
		pl.mtime = ts
	}

	if pl.dest != path && filesystem.Exists(pl.dest) {
		return nil, newError(ErrTransactionFailure, path, fmt.Errorf("destination %s already exists", filepath.Base(pl.dest)))
	}
	if prior := backupsForStem(filepath.Join(folder, BackupDirName), stem); len(prior) > 0 {
		return nil, newError(ErrTransactionFailure, path, fmt.Errorf("already repaired from %s, revert first", prior[0]))
	}
	return pl, nil
}

// apply produces the repaired file in a scratch directory and commits it.
// On any error the original is left where it was.
func (p *Planner) apply(ctx context.Context, path string, cls Classification) (Record, error) {
	rec := Record{Path: path, Detected: cls.Detected, Action: cls.Action, TargetExt: cls.TargetExt}

	pl, err := p.newPlan(path, cls.TargetExt)
	if err != nil {
		return rec, err
	}

	scratch, err := os.MkdirTemp(pl.folder, scratchPattern)
	if err != nil {
		return rec, newError(ErrTransactionFailure, path, fmt.Errorf("create scratch dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logging.Warn("failed to remove scratch dir %s: %v", scratch, err)
		}
	}()

	out := filepath.Join(scratch, filepath.Base(pl.dest))
	if err := p.produce(ctx, path, out, cls.Action); err != nil {
		return rec, err
	}

	if err := p.commit(pl, out); err != nil {
		return rec, err
	}

	rec.BackupPath = pl.backup
	rec.NewPath = pl.dest
	return rec, nil
}

// produce writes the repaired version of in to out.
func (p *Planner) produce(ctx context.Context, in, out string, action Action) error {
	switch action {
	case ActionVideo:
		if err := p.tool.ReencodeVideo(ctx, in, out); err != nil {
			return newError(ErrTranscodeFailure, in, err)
		}
	case ActionAudio:
		if err := p.tool.ExtractAudio(ctx, in, out); err != nil {
			return newError(ErrTranscodeFailure, in, err)
		}
	case ActionJPEG:
		return extractJPEG(in, out)
	default:
		return newError(ErrTransactionFailure, in, fmt.Errorf("no repair for action %q", action))
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return newError(ErrTranscodeFailure, in, errors.New("tool reported success but wrote no output"))
	}
	return nil
}

// extractJPEG copies the bytes between the first SOI and last EOI marker.
func extractJPEG(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return newError(ErrExtractionFailure, in, err)
	}

	start, end, ok := signature.FindJPEG(data)
	if !ok {
		return newError(ErrExtractionFailure, in, errors.New("no JPEG start/end marker pair"))
	}

	if err := os.WriteFile(out, data[start:end], 0o644); err != nil {
		return newError(ErrExtractionFailure, in, err)
	}
	logging.Debug("Extracted %d of %d bytes from %s", end-start, len(data), filepath.Base(in))
	return nil
}

// commit moves the original into the backup folder, moves out into place
// and restores the timestamp. Each failing step undoes the earlier ones.
func (p *Planner) commit(pl *plan, out string) error {
	backupDir := filepath.Dir(pl.backup)
	createdDir := !filesystem.Exists(backupDir)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return newError(ErrTransactionFailure, pl.path, fmt.Errorf("create backup dir: %w", err))
	}

	success := false
	defer func() {
		if !success && createdDir {
			// Only succeeds when empty.
			_ = os.Remove(backupDir)
		}
	}()

	if filesystem.Exists(pl.backup) {
		return newError(ErrTransactionFailure, pl.path, fmt.Errorf("backup %s already exists", pl.backup))
	}

	if err := filesystem.RenameWithRetry(pl.path, pl.backup, p.retry); err != nil {
		return newError(ErrTransactionFailure, pl.path, fmt.Errorf("move original to backup: %w", err))
	}

	if err := filesystem.RenameWithRetry(out, pl.dest, p.retry); err != nil {
		return p.rollback(pl, false, fmt.Errorf("move repaired file into place: %w", err))
	}

	if err := os.Chtimes(pl.dest, pl.mtime, pl.mtime); err != nil {
		return p.rollback(pl, true, fmt.Errorf("restore timestamp: %w", err))
	}

	success = true
	return nil
}

// rollback returns the original from backup after a failed commit step.
func (p *Planner) rollback(pl *plan, removeDest bool, cause error) error {
	if removeDest {
		if err := os.Remove(pl.dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Error("Rollback could not remove %s: %v", pl.dest, err)
		}
	}
	if err := filesystem.RenameWithRetry(pl.backup, pl.path, p.retry); err != nil {
		logging.Error("Rollback could not restore %s from %s: %v", pl.path, pl.backup, err)
		return newError(ErrTransactionFailure, pl.path, fmt.Errorf("%w; original left at %s: %v", cause, pl.backup, err))
	}
	return newError(ErrTransactionFailure, pl.path, cause)
}

// backupsForStem lists backup files in backupDir sharing stem.
func backupsForStem(backupDir, stem string) []string {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(mediatypes.Stem(e.Name()), stem) {
			names = append(names, e.Name())
		}
	}
	return names
}

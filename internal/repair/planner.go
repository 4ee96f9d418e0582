package repair

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_media_tool.go -package=mocks snapcapsule/internal/repair MediaTool

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
	"snapcapsule/internal/mediatypes"
	"snapcapsule/internal/metrics"
	"snapcapsule/internal/transcoder"
)

// MediaTool is the external transcoder as seen by the planner.
type MediaTool interface {
	Available() error
	ProbeStreams(ctx context.Context, path string) (transcoder.Streams, error)
	ReencodeVideo(ctx context.Context, in, out string) error
	ExtractAudio(ctx context.Context, in, out string) error
}

// Options configures a Planner.
type Options struct {
	// DryRun classifies files and reports planned actions without
	// touching anything.
	DryRun bool
	Retry  filesystem.RetryConfig
}

// Planner classifies and repairs mis-typed media files.
type Planner struct {
	tool   MediaTool
	dryRun bool
	retry  filesystem.RetryConfig
}

// New creates a Planner using tool for probing and transcoding.
func New(tool MediaTool, opts Options) *Planner {
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialBackoff == 0 {
		opts.Retry = filesystem.DefaultRetryConfig()
	}
	return &Planner{tool: tool, dryRun: opts.DryRun, retry: opts.Retry}
}

// RunRepair examines every candidate file directly inside dirs, one at a
// time. Per-file failures are counted, not returned; the error is only set
// for setup failures or cancellation, which is checked between files.
func (p *Planner) RunRepair(ctx context.Context, dirs []string, onProgress func(Progress)) (Tally, error) {
	release, err := p.setup(dirs)
	if err != nil {
		metrics.RepairRunsTotal.WithLabelValues("repair", "error").Inc()
		return Tally{}, err
	}
	defer release()

	var files []string
	for _, dir := range dirs {
		found, err := p.candidates(dir)
		if err != nil {
			metrics.RepairRunsTotal.WithLabelValues("repair", "error").Inc()
			return Tally{}, err
		}
		files = append(files, found...)
	}

	return p.process(ctx, files, onProgress)
}

// RepairFiles runs Classify and Apply on an explicit list of files, such
// as the FailedPaths of an earlier tally.
func (p *Planner) RepairFiles(ctx context.Context, paths []string, onProgress func(Progress)) (Tally, error) {
	folders := make([]string, 0, len(paths))
	for _, path := range paths {
		folders = append(folders, filepath.Dir(path))
	}

	release, err := p.setup(folders)
	if err != nil {
		metrics.RepairRunsTotal.WithLabelValues("repair", "error").Inc()
		return Tally{}, err
	}
	defer release()

	return p.process(ctx, paths, onProgress)
}

// RunRevert restores every backup under dirs and returns how many files
// were restored. Folders without backups are a no-op.
func (p *Planner) RunRevert(ctx context.Context, dirs []string, onLog func(string)) (int, error) {
	release, err := claimFolders(dirs)
	if err != nil {
		metrics.RepairRunsTotal.WithLabelValues("revert", "error").Inc()
		return 0, err
	}
	defer release()

	metrics.RepairIsRunning.Set(1)
	defer metrics.RepairIsRunning.Set(0)

	total := 0
	for _, dir := range dirs {
		n, err := p.revertFolder(ctx, dir, onLog)
		total += n
		if err != nil {
			metrics.RepairRunsTotal.WithLabelValues("revert", runStatus(err)).Inc()
			return total, err
		}
	}

	logging.Info("Revert complete: %d files restored", total)
	emit(onLog, fmt.Sprintf("Reverted %d files", total))
	metrics.RepairRunsTotal.WithLabelValues("revert", "success").Inc()
	return total, nil
}

func (p *Planner) setup(folders []string) (func(), error) {
	if err := p.tool.Available(); err != nil {
		return nil, fmt.Errorf("media tool unavailable: %w", err)
	}
	return claimFolders(folders)
}

func (p *Planner) process(ctx context.Context, files []string, onProgress func(Progress)) (Tally, error) {
	metrics.RepairIsRunning.Set(1)
	defer metrics.RepairIsRunning.Set(0)

	start := time.Now()
	var tally Tally
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			logging.Info("Repair cancelled after %d of %d files: %s", i, len(files), tally)
			metrics.RepairRunsTotal.WithLabelValues("repair", runStatus(err)).Inc()
			return tally, err
		}

		// A file that has started always runs to completion.
		rec := p.repairOne(context.WithoutCancel(ctx), path)
		tally.Add(rec)
		metrics.RepairFilesTotal.WithLabelValues(string(rec.Action), string(rec.Outcome)).Inc()
		logRecord(rec)

		if onProgress != nil {
			onProgress(Progress{Done: i + 1, Total: len(files), Record: rec})
		}
	}

	logging.Info("Repair complete in %v: %s", time.Since(start).Round(time.Millisecond), tally)
	metrics.RepairRunsTotal.WithLabelValues("repair", "success").Inc()
	return tally, nil
}

// repairOne classifies and, unless nothing is needed, repairs one file.
func (p *Planner) repairOne(ctx context.Context, path string) Record {
	cls, err := p.Classify(ctx, path)
	if err != nil {
		return Record{Path: path, Action: ActionNone, Outcome: OutcomeFailed, Err: err}
	}
	if cls.ProbeErr != nil {
		logging.Debug("Probe of %s failed, forcing video repair: %v", path, cls.ProbeErr)
	}

	rec := Record{Path: path, Detected: cls.Detected, Action: cls.Action, TargetExt: cls.TargetExt}
	if !cls.NeedsRepair() {
		rec.Outcome = OutcomeSkipped
		return rec
	}
	if p.dryRun {
		rec.Outcome = OutcomePlanned
		return rec
	}

	rec, err = p.apply(ctx, path, cls)
	if err != nil {
		rec.Outcome = OutcomeFailed
		rec.Err = err
		return rec
	}
	rec.Outcome = OutcomeFixed
	return rec
}

// candidates lists the image and video files directly inside dir, sorted
// by name.
func (p *Planner) candidates(dir string) ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, p.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if mediatypes.IsRepairCandidate(mediatypes.Ext(name)) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// BackupCount returns the number of originals held under dirs.
func BackupCount(dirs ...string) int {
	count := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(filepath.Join(dir, BackupDirName))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				count++
			}
		}
	}
	return count
}

func logRecord(rec Record) {
	switch rec.Outcome {
	case OutcomeFailed:
		logging.Warn("%s", rec.Line())
	default:
		logging.Info("%s", rec.Line())
	}
}

func runStatus(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}

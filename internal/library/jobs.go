package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapcapsule/internal/logging"
	"snapcapsule/internal/repair"
)

// ErrJobRunning is returned when a repair or revert job is already active.
var ErrJobRunning = errors.New("a repair job is already running")

// maxJobLog bounds the log lines kept on a job.
const maxJobLog = 200

// Job kinds.
const (
	JobRepair = "repair"
	JobRevert = "revert"
)

// Job states.
const (
	JobRunning   = "running"
	JobDone      = "done"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// JobStatus is a snapshot of a background repair or revert.
type JobStatus struct {
	ID         int64         `json:"id"`
	Kind       string        `json:"kind"`
	DryRun     bool          `json:"dryRun,omitempty"`
	State      string        `json:"state"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt,omitempty"`
	Done       int           `json:"done"`
	Total      int           `json:"total"`
	Tally      *repair.Tally `json:"tally,omitempty"`
	Reverted   int           `json:"reverted,omitempty"`
	Error      string        `json:"error,omitempty"`
	Log        []string      `json:"log,omitempty"`
}

// jobTracker runs at most one job at a time and keeps the last one's
// status.
type jobTracker struct {
	mu      sync.Mutex
	nextID  int64
	current *JobStatus
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func (t *jobTracker) start(kind string, dryRun bool) (context.Context, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && t.current.State == JobRunning {
		return nil, ErrJobRunning
	}

	t.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.current = &JobStatus{ID: t.nextID, Kind: kind, DryRun: dryRun, State: JobRunning, StartedAt: time.Now()}
	t.wg.Add(1)
	return ctx, nil
}

func (t *jobTracker) update(fn func(*JobStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		fn(t.current)
	}
}

func (t *jobTracker) appendLog(line string) {
	t.update(func(s *JobStatus) {
		s.Log = append(s.Log, line)
		if len(s.Log) > maxJobLog {
			s.Log = s.Log[len(s.Log)-maxJobLog:]
		}
	})
}

func (t *jobTracker) finish(err error) {
	t.update(func(s *JobStatus) {
		s.FinishedAt = time.Now()
		switch {
		case err == nil:
			s.State = JobDone
		case errors.Is(err, context.Canceled):
			s.State = JobCancelled
		default:
			s.State = JobFailed
			s.Error = err.Error()
		}
	})
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()
	t.wg.Done()
}

func (t *jobTracker) snapshot() (JobStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return JobStatus{}, false
	}
	s := *t.current
	s.Log = append([]string(nil), t.current.Log...)
	if t.current.Tally != nil {
		tally := *t.current.Tally
		s.Tally = &tally
	}
	return s, true
}

func (t *jobTracker) cancelRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return false
	}
	t.cancel()
	return true
}

func (t *jobTracker) cancelAndWait() {
	t.cancelRunning()
	t.wg.Wait()
}

// StartRepair launches a repair pass in the background.
func (l *Library) StartRepair(dryRun bool) (JobStatus, error) {
	ctx, err := l.startJob(JobRepair, dryRun)
	if err != nil {
		return JobStatus{}, err
	}

	go func() {
		tally, err := l.Repair(ctx, dryRun, func(p repair.Progress) {
			l.jobs.update(func(s *JobStatus) {
				s.Done, s.Total = p.Done, p.Total
			})
			l.jobs.appendLog(p.Record.Line())
		})
		l.jobs.update(func(s *JobStatus) { s.Tally = &tally })
		l.jobs.appendLog("Summary: " + tally.String())
		if err != nil {
			logging.Warn("Repair job ended: %v", err)
		}
		l.jobs.finish(err)
	}()

	status, _ := l.jobs.snapshot()
	return status, nil
}

// StartRevert launches a revert pass in the background.
func (l *Library) StartRevert() (JobStatus, error) {
	ctx, err := l.startJob(JobRevert, false)
	if err != nil {
		return JobStatus{}, err
	}

	go func() {
		n, err := l.Revert(ctx, l.jobs.appendLog)
		l.jobs.update(func(s *JobStatus) { s.Reverted = n })
		if err != nil {
			logging.Warn("Revert job ended: %v", err)
		}
		l.jobs.finish(err)
	}()

	status, _ := l.jobs.snapshot()
	return status, nil
}

// startJob registers a job, failing it at once when a pass in another
// process holds one of the media folders.
func (l *Library) startJob(kind string, dryRun bool) (context.Context, error) {
	ctx, err := l.jobs.start(kind, dryRun)
	if err != nil {
		return nil, err
	}
	if dir, busy := repair.AnyBusy(l.MediaDirs()...); busy {
		err := fmt.Errorf("%w: %s", repair.ErrFolderBusy, dir)
		l.jobs.finish(err)
		return nil, err
	}
	return ctx, nil
}

// CurrentJob returns the running or most recent job.
func (l *Library) CurrentJob() (JobStatus, bool) {
	return l.jobs.snapshot()
}

// CancelJob asks the running job to stop after its current file.
func (l *Library) CancelJob() bool {
	return l.jobs.cancelRunning()
}

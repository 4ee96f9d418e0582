package repair

import (
	"fmt"
	"path/filepath"
)

// Action is what a repair does to a file.
type Action string

// Repair actions.
const (
	ActionNone  Action = "none"
	ActionVideo Action = "video"
	ActionAudio Action = "audio"
	ActionJPEG  Action = "jpeg"
)

// Outcome is the result of examining one file.
type Outcome string

// Outcomes. Planned is only produced by dry runs.
const (
	OutcomeFixed   Outcome = "fixed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomePlanned Outcome = "planned"
)

// Record describes one file examined during a repair pass.
type Record struct {
	Path       string  `json:"path"`
	Detected   string  `json:"detected"`
	Action     Action  `json:"action"`
	TargetExt  string  `json:"targetExt,omitempty"`
	BackupPath string  `json:"backupPath,omitempty"`
	NewPath    string  `json:"newPath,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Err        error   `json:"-"`
}

// Line renders the record as a log line.
func (r Record) Line() string {
	name := filepath.Base(r.Path)
	switch r.Outcome {
	case OutcomeFixed:
		return fmt.Sprintf("FIXED %s -> %s (%s)", name, filepath.Base(r.NewPath), r.Detected)
	case OutcomeFailed:
		return fmt.Sprintf("FAILED %s: %v", name, r.Err)
	case OutcomePlanned:
		return fmt.Sprintf("PLANNED %s -> %s repair (%s)", name, r.Action, r.Detected)
	default:
		return fmt.Sprintf("SKIPPED %s (%s)", name, r.Detected)
	}
}

// Tally is the final count of a repair pass.
type Tally struct {
	Fixed       int      `json:"fixed"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	Planned     int      `json:"planned,omitempty"`
	FailedPaths []string `json:"failedPaths,omitempty"`
}

// Add counts one record.
func (t *Tally) Add(r Record) {
	switch r.Outcome {
	case OutcomeFixed:
		t.Fixed++
	case OutcomeFailed:
		t.Failed++
		t.FailedPaths = append(t.FailedPaths, r.Path)
	case OutcomePlanned:
		t.Planned++
	default:
		t.Skipped++
	}
}

// Changed reports whether the pass modified any file.
func (t Tally) Changed() bool {
	return t.Fixed > 0
}

func (t Tally) String() string {
	s := fmt.Sprintf("%d fixed, %d skipped, %d failed", t.Fixed, t.Skipped, t.Failed)
	if t.Planned > 0 {
		s += fmt.Sprintf(", %d planned", t.Planned)
	}
	return s
}

// Progress is reported after each file.
type Progress struct {
	Done   int    `json:"done"`
	Total  int    `json:"total"`
	Record Record `json:"record"`
}

package transcoder

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when ffmpeg or ffprobe cannot be executed.
	ErrToolNotFound = errors.New("media tool not found")
	// ErrProbeFailed is returned when ffprobe exits with an error.
	ErrProbeFailed = errors.New("probe failed")
	// ErrTranscodeFailed is returned when ffmpeg exits with an error.
	ErrTranscodeFailed = errors.New("transcode failed")
)

// ToolError describes a failed ffmpeg or ffprobe invocation.
type ToolError struct {
	Op     string // "probe", "reencode_video", "extract_audio"
	Path   string // input file
	Kind   error  // one of the sentinels above
	Err    error  // underlying exec or context error
	Stderr string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += " - " + e.Stderr
	}
	return msg
}

// Unwrap exposes both the sentinel kind and the underlying cause to errors.Is.
func (e *ToolError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

package repair

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to tell failures apart.
var (
	ErrProbeFailure       = errors.New("probe failure")
	ErrTranscodeFailure   = errors.New("transcode failure")
	ErrExtractionFailure  = errors.New("extraction failure")
	ErrTransactionFailure = errors.New("transaction failure")

	// ErrFolderBusy is returned when another pass holds the folder.
	ErrFolderBusy = errors.New("folder is busy with another repair or revert")
)

// Error is a per-file repair failure.
type Error struct {
	Kind error // one of the Err* kinds above
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

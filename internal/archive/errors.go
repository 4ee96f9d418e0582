package archive

import "fmt"

// LoadError represents a failure reading or parsing an export JSON file.
type LoadError struct {
	Path string
	Op   string // "read", "parse"
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Package memlimit sets the Go soft memory limit from the container limit.
//
// When GOMEMLIMIT is set the runtime has already applied it and nothing is
// changed. Otherwise MEMORY_LIMIT (bytes) scaled by MEMORY_RATIO (default
// 0.85) becomes the limit, leaving headroom for libvips and ffmpeg, which
// allocate outside the Go heap.
package memlimit

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"snapcapsule/internal/logging"
)

// DefaultRatio is the share of MEMORY_LIMIT given to the Go heap.
const DefaultRatio = 0.85

// Sources of the applied limit.
const (
	SourceNone        = "none"
	SourceGOMEMLIMIT  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
)

// Result describes the limit in effect after Configure.
type Result struct {
	Source         string
	ContainerLimit int64
	Limit          int64
	Ratio          float64
}

// Configured reports whether a limit is in effect.
func (r Result) Configured() bool {
	return r.Limit > 0
}

// Configure applies the limit from the process environment.
func Configure() Result {
	return configure(os.Getenv)
}

func configure(getenv func(string) string) Result {
	if v := getenv("GOMEMLIMIT"); v != "" {
		res := Result{Source: SourceGOMEMLIMIT}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			res.Limit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return res
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving the Go memory limit alone")
		return Result{Source: SourceNone}
	}
	container, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || container <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: not a positive byte count", raw)
		return Result{Source: SourceNone}
	}

	ratio := DefaultRatio
	if v := getenv("MEMORY_RATIO"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			logging.Warn("MEMORY_RATIO %q must be in (0, 1], using %.2f", v, DefaultRatio)
		} else {
			ratio = parsed
		}
	}

	limit := int64(float64(container) * ratio)
	debug.SetMemoryLimit(limit)
	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		FormatBytes(limit), ratio*100, FormatBytes(container))

	return Result{Source: SourceMemoryLimit, ContainerLimit: container, Limit: limit, Ratio: ratio}
}

// FormatBytes renders b with binary units, e.g. "1.5 GiB".
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}

package memlimit

import (
	"math"
	"runtime/debug"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

// scaled mirrors the runtime computation of the limit.
func scaled(bytes int64, ratio float64) int64 {
	return int64(float64(bytes) * ratio)
}

func keepLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestConfigure(t *testing.T) {
	const gib = 1 << 30
	tests := []struct {
		name      string
		vars      map[string]string
		source    string
		wantLimit int64
		wantRatio float64
	}{
		{"nothing set", nil, SourceNone, 0, 0},
		{"container limit", map[string]string{"MEMORY_LIMIT": "1073741824"}, SourceMemoryLimit, scaled(gib, DefaultRatio), DefaultRatio},
		{"custom ratio", map[string]string{"MEMORY_LIMIT": "1073741824", "MEMORY_RATIO": "0.5"}, SourceMemoryLimit, scaled(gib, 0.5), 0.5},
		{"ratio out of range", map[string]string{"MEMORY_LIMIT": "1073741824", "MEMORY_RATIO": "1.5"}, SourceMemoryLimit, scaled(gib, DefaultRatio), DefaultRatio},
		{"ratio not a number", map[string]string{"MEMORY_LIMIT": "1073741824", "MEMORY_RATIO": "most"}, SourceMemoryLimit, scaled(gib, DefaultRatio), DefaultRatio},
		{"invalid limit", map[string]string{"MEMORY_LIMIT": "1G"}, SourceNone, 0, 0},
		{"negative limit", map[string]string{"MEMORY_LIMIT": "-5"}, SourceNone, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keepLimit(t)
			debug.SetMemoryLimit(math.MaxInt64)

			res := configure(env(tt.vars))
			if res.Source != tt.source {
				t.Errorf("Source = %q, want %q", res.Source, tt.source)
			}
			if res.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", res.Limit, tt.wantLimit)
			}
			if res.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", res.Ratio, tt.wantRatio)
			}
			if res.Configured() != (tt.wantLimit > 0) {
				t.Errorf("Configured() = %v", res.Configured())
			}
			if tt.wantLimit > 0 {
				if got := debug.SetMemoryLimit(-1); got != tt.wantLimit {
					t.Errorf("runtime limit = %d, want %d", got, tt.wantLimit)
				}
			}
		})
	}
}

func TestConfigureRespectsGOMEMLIMIT(t *testing.T) {
	keepLimit(t)
	debug.SetMemoryLimit(512 << 20)

	res := configure(env(map[string]string{"GOMEMLIMIT": "512MiB", "MEMORY_LIMIT": "1073741824"}))
	if res.Source != SourceGOMEMLIMIT || res.Limit != 512<<20 {
		t.Errorf("configure() = %+v, want the existing 512MiB limit", res)
	}
	if got := debug.SetMemoryLimit(-1); got != 512<<20 {
		t.Errorf("runtime limit changed to %d", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
		{2 << 40, "2.0 TiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

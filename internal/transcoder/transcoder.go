package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"snapcapsule/internal/logging"
	"snapcapsule/internal/metrics"
)

// Default timeouts for external tool invocations.
const (
	DefaultProbeTimeout     = 30 * time.Second
	DefaultTranscodeTimeout = 10 * time.Minute
)

// maxStderr bounds how much tool output is kept in a ToolError.
const maxStderr = 2048

// StreamKind is the codec_type ffprobe reports for a stream.
type StreamKind string

// Stream kinds reported by ffprobe.
const (
	StreamVideo    StreamKind = "video"
	StreamAudio    StreamKind = "audio"
	StreamSubtitle StreamKind = "subtitle"
	StreamData     StreamKind = "data"
	StreamUnknown  StreamKind = "unknown"
)

// Streams is the ordered list of stream kinds in a container.
type Streams []StreamKind

// HasVideo reports whether any stream is video.
func (s Streams) HasVideo() bool { return s.has(StreamVideo) }

// HasAudio reports whether any stream is audio.
func (s Streams) HasAudio() bool { return s.has(StreamAudio) }

func (s Streams) has(kind StreamKind) bool {
	for _, k := range s {
		if k == kind {
			return true
		}
	}
	return false
}

// Config holds tool locations and timeouts.
type Config struct {
	FFmpegPath       string
	FFprobePath      string // defaults to a sibling of FFmpegPath
	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration
}

// Tool runs ffprobe and ffmpeg on behalf of the repair planner.
type Tool struct {
	ffmpegPath       string
	ffprobePath      string
	probeTimeout     time.Duration
	transcodeTimeout time.Duration

	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// New creates a Tool, filling in defaults for empty config fields.
func New(cfg Config) *Tool {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = DefaultFFprobePath(cfg.FFmpegPath)
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.TranscodeTimeout <= 0 {
		cfg.TranscodeTimeout = DefaultTranscodeTimeout
	}

	return &Tool{
		ffmpegPath:       cfg.FFmpegPath,
		ffprobePath:      cfg.FFprobePath,
		probeTimeout:     cfg.ProbeTimeout,
		transcodeTimeout: cfg.TranscodeTimeout,
		processes:        make(map[string]*exec.Cmd),
	}
}

// DefaultFFprobePath returns the ffprobe binary that sits next to ffmpegPath.
// A bare command name maps to a bare "ffprobe" resolved through PATH.
func DefaultFFprobePath(ffmpegPath string) string {
	dir, base := filepath.Split(ffmpegPath)
	name := "ffprobe"
	if strings.HasSuffix(strings.ToLower(base), ".exe") {
		name += ".exe"
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// FFmpegPath returns the configured ffmpeg binary.
func (t *Tool) FFmpegPath() string { return t.ffmpegPath }

// FFprobePath returns the configured ffprobe binary.
func (t *Tool) FFprobePath() string { return t.ffprobePath }

// Available checks that both binaries can be found.
func (t *Tool) Available() error {
	for _, bin := range []string{t.ffmpegPath, t.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return &ToolError{Op: "lookup", Path: bin, Kind: ErrToolNotFound, Err: err}
		}
	}
	return nil
}

// ProbeStreams lists the stream kinds in the container at path.
// An empty result with a nil error means ffprobe found no streams.
func (t *Tool) ProbeStreams(ctx context.Context, path string) (Streams, error) {
	ctx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	defer cancel()

	stdout, err := t.run(ctx, "probe", t.ffprobePath, probeArgs(path), path, ErrProbeFailed)
	if err != nil {
		return nil, err
	}

	streams := parseStreams(stdout)
	logging.Debug("Probed %s: %v", path, streams)
	return streams, nil
}

// ReencodeVideo re-encodes in to a faststart H.264/AAC MP4 at out.
func (t *Tool) ReencodeVideo(ctx context.Context, in, out string) error {
	ctx, cancel := context.WithTimeout(ctx, t.transcodeTimeout)
	defer cancel()

	_, err := t.run(ctx, "reencode_video", t.ffmpegPath, videoArgs(in, out), in, ErrTranscodeFailed)
	return err
}

// ExtractAudio drops any video and writes the audio track of in as MP3 at out.
func (t *Tool) ExtractAudio(ctx context.Context, in, out string) error {
	ctx, cancel := context.WithTimeout(ctx, t.transcodeTimeout)
	defer cancel()

	_, err := t.run(ctx, "extract_audio", t.ffmpegPath, audioArgs(in, out), in, ErrTranscodeFailed)
	return err
}

// Cleanup kills any tool processes that are still running.
func (t *Tool) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing media tool process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill media tool process for %s: %v", path, err)
			}
		}
	}
}

func (t *Tool) run(ctx context.Context, op, bin string, args []string, path string, kind error) (string, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.processMu.Lock()
	t.processes[path] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, path)
		t.processMu.Unlock()
	}()

	err := cmd.Run()
	metrics.TranscoderJobDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues(op, "error").Inc()
		toolErr := &ToolError{Op: op, Path: path, Kind: kind, Err: err, Stderr: trimStderr(stderr.String())}
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			toolErr.Kind = ErrToolNotFound
		case ctx.Err() != nil:
			toolErr.Err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		logging.Debug("%s failed for %s: %v", op, path, toolErr)
		return "", toolErr
	}

	metrics.TranscoderJobsTotal.WithLabelValues(op, "success").Inc()
	return stdout.String(), nil
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		path,
	}
}

func videoArgs(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		out,
	}
}

func audioArgs(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "2",
		out,
	}
}

// parseStreams reads "csv=p=0" output: one codec_type per line, sometimes
// followed by a trailing separator.
func parseStreams(output string) Streams {
	var streams Streams
	for _, line := range strings.Split(output, "\n") {
		field, _, _ := strings.Cut(strings.TrimSpace(line), ",")
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		switch kind := StreamKind(field); kind {
		case StreamVideo, StreamAudio, StreamSubtitle, StreamData:
			streams = append(streams, kind)
		default:
			streams = append(streams, StreamUnknown)
		}
	}
	return streams
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[len(s)-maxStderr:]
	}
	return s
}

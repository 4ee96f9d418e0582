// Package startup handles configuration loading and startup/shutdown
// logging.
//
// # Configuration
//
// Configuration is read from environment variables by [LoadConfig]. A .env
// file in the working directory is loaded first; variables that are
// already set take precedence over it. Command-line flags override both.
//
//   - DATA_ROOT: Export root containing json/ (default: .)
//   - CHAT_MEDIA_DIR: Chat media folder (default: $DATA_ROOT/chat_media)
//   - MEMORIES_DIR: Saved memories folder (default: $DATA_ROOT/memories)
//   - FFMPEG_PATH: ffmpeg binary (default: ffmpeg)
//   - FFPROBE_PATH: ffprobe binary (default: sibling of FFMPEG_PATH)
//   - PROBE_TIMEOUT: Per-file probe timeout (default: 30s)
//   - TRANSCODE_TIMEOUT: Per-file transcode timeout (default: 10m)
//   - PORT: HTTP server port for serve (default: 8080)
//   - METRICS_ENABLED: Expose /metrics (default: true)
//   - VIPS_ENABLED: Decode oversized images with libvips (default: false)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO: Go soft memory limit for serve (see memlimit)
//
// Export folders are checked by [LogConfig] but never created.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [PrintBanner]: Version and system information
//   - [LogConfig]: Effective configuration and folder checks
//   - [LogTranscoderInit]: FFmpeg availability
//   - [LogLibraryInit]: Initial library load
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup

package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"snapcapsule/internal/library"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/transcoder"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	DataRoot     string
	ChatMediaDir string
	MemoriesDir  string

	FFmpegPath       string
	FFprobePath      string
	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration

	Port            string
	MetricsEnabled  bool
	VipsEnabled     bool
	LogHealthChecks bool
}

// Default values for duration settings.
const (
	DefaultProbeTimeout     = 30 * time.Second
	DefaultTranscodeTimeout = 10 * time.Minute
)

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first; variables already set take precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded .env from working directory")
	}
	if level, ok := logging.ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		logging.SetLevel(level)
	}

	ffmpeg := getEnv("FFMPEG_PATH", "ffmpeg")
	cfg := &Config{
		DataRoot:         getEnv("DATA_ROOT", "."),
		ChatMediaDir:     os.Getenv("CHAT_MEDIA_DIR"),
		MemoriesDir:      os.Getenv("MEMORIES_DIR"),
		FFmpegPath:       ffmpeg,
		FFprobePath:      getEnv("FFPROBE_PATH", transcoder.DefaultFFprobePath(ffmpeg)),
		ProbeTimeout:     getEnvDuration("PROBE_TIMEOUT", DefaultProbeTimeout),
		TranscodeTimeout: getEnvDuration("TRANSCODE_TIMEOUT", DefaultTranscodeTimeout),
		Port:             getEnv("PORT", "8080"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		VipsEnabled:      getEnvBool("VIPS_ENABLED", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", false),
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve fills in derived folder defaults and makes all paths absolute.
// Call it again after overriding DataRoot.
func (c *Config) Resolve() error {
	root, err := filepath.Abs(c.DataRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve data root path: %w", err)
	}
	c.DataRoot = root

	if c.ChatMediaDir == "" {
		c.ChatMediaDir = filepath.Join(root, "chat_media")
	}
	if c.MemoriesDir == "" {
		c.MemoriesDir = filepath.Join(root, "memories")
	}

	if c.ChatMediaDir, err = filepath.Abs(c.ChatMediaDir); err != nil {
		return fmt.Errorf("failed to resolve chat media path: %w", err)
	}
	if c.MemoriesDir, err = filepath.Abs(c.MemoriesDir); err != nil {
		return fmt.Errorf("failed to resolve memories path: %w", err)
	}
	return nil
}

// LibraryConfig returns the folder layout for library.New.
func (c *Config) LibraryConfig() library.Config {
	return library.Config{
		DataRoot:     c.DataRoot,
		ChatMediaDir: c.ChatMediaDir,
		MemoriesDir:  c.MemoriesDir,
	}
}

// TranscoderConfig returns the media tool settings for transcoder.New.
func (c *Config) TranscoderConfig() transcoder.Config {
	return transcoder.Config{
		FFmpegPath:       c.FFmpegPath,
		FFprobePath:      c.FFprobePath,
		ProbeTimeout:     c.ProbeTimeout,
		TranscodeTimeout: c.TranscodeTimeout,
	}
}

// LogConfig prints the configuration and checks the export folders.
func LogConfig(c *Config) {
	section("CONFIGURATION")
	logging.Info("  DATA_ROOT:          %s", c.DataRoot)
	logging.Info("  CHAT_MEDIA_DIR:     %s", c.ChatMediaDir)
	logging.Info("  MEMORIES_DIR:       %s", c.MemoriesDir)
	logging.Info("  FFMPEG_PATH:        %s", c.FFmpegPath)
	logging.Info("  FFPROBE_PATH:       %s", c.FFprobePath)
	logging.Info("  PROBE_TIMEOUT:      %v", c.ProbeTimeout)
	logging.Info("  TRANSCODE_TIMEOUT:  %v", c.TranscodeTimeout)
	logging.Info("  PORT:               %s", c.Port)
	logging.Info("  METRICS_ENABLED:    %v", c.MetricsEnabled)
	logging.Info("  VIPS_ENABLED:       %v", c.VipsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:  %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	section("DIRECTORY SETUP")
	for _, d := range []struct{ name, path string }{
		{"data root", c.DataRoot},
		{"chat media", c.ChatMediaDir},
		{"memories", c.MemoriesDir},
	} {
		if err := CheckDirectory(d.path); err != nil {
			logging.Warn("  %s directory issue: %v", d.name, err)
			continue
		}
		logging.Info("  [OK] %s directory: %s", d.name, d.path)
	}
}

// CheckDirectory verifies path is an existing directory. Export folders
// are never created.
func CheckDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    %s: %d files, %d directories (top level)", path, fileCount, dirCount)
		}
	}
	return nil
}

const rule = "------------------------------------------------------------"

// section logs a titled block separator.
func section(format string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(format, args...)
	logging.Info(rule)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogTranscoderInit logs the media tool check.
func LogTranscoderInit(c *Config) bool {
	section("TRANSCODER INITIALIZATION")

	if err := CheckFFmpeg(c.FFmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Repair will be unavailable")
		return false
	}
	logging.Info("  [OK] FFmpeg is available")
	return true
}

// LogLibraryInit logs the initial library load.
func LogLibraryInit(status library.HealthStatus, duration time.Duration) {
	section("LIBRARY INITIALIZATION")
	if status.LoadError != "" {
		logging.Warn("  Library load failed: %s", status.LoadError)
		return
	}
	logging.Info("  [OK] Library loaded in %v (%d index keys)", duration, status.IndexKeys)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  API:             http://localhost:%s/api", config.Port)
	logging.Info("  Metrics:         %s", enabledString(config.MetricsEnabled))
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section("SHUTDOWN INITIATED (received %s)", signal)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// PrintBanner prints the startup banner and system information.
func PrintBanner() {
	banner := `
------------------------------------------------------------
  ___ _ __   __ _ _ __   ___ __ _ _ __  ___ _   _| | ___
 / __| '_ \ / _' | '_ \ / __/ _' | '_ \/ __| | | | |/ _ \
 \__ \ | | | (_| | |_) | (_| (_| | |_) \__ \ |_| | |  __/
 |___/_| |_|\__,_| .__/ \___\__,_| .__/|___/\__,_|_|\___|
                 |_|             |_|
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
	logSystemInfo()
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

// CheckFFmpeg verifies that the ffmpeg binary at path runs.
func CheckFFmpeg(path string) error {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return fmt.Errorf("%s not found: %w", path, err)
	}
	logging.Debug("  FFmpeg path: %s", resolved)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, resolved, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

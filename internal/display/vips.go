package display

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"snapcapsule/internal/logging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// InitVips starts libvips for decode-time shrinking of oversized images.
// Call once at startup when VIPS_ENABLED is set.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	level, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// vipsLogSettings maps the application log level to the libvips verbosity
// and a handler that routes messages at or above it to our logger.
func vipsLogSettings(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	var threshold vips.LogLevel
	switch appLevel {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelInfo:
		threshold = vips.LogLevelWarning
	case logging.LevelWarn:
		threshold = vips.LogLevelCritical
	default:
		threshold = vips.LogLevelError
	}
	floor := vipsSeverity(threshold)

	handler := func(domain string, level vips.LogLevel, msg string) {
		severity := vipsSeverity(level)
		if severity < floor {
			return
		}
		switch {
		case severity >= vipsSeverity(vips.LogLevelCritical):
			logging.Error("[%s] %s", domain, msg)
		case severity == vipsSeverity(vips.LogLevelWarning):
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return threshold, handler
}

// vipsSeverity orders glib log levels, whose numeric values grow as
// severity falls.
func vipsSeverity(level vips.LogLevel) int {
	switch level {
	case vips.LogLevelError:
		return 4
	case vips.LogLevelCritical:
		return 3
	case vips.LogLevelWarning:
		return 2
	case vips.LogLevelMessage, vips.LogLevelInfo:
		return 1
	default:
		return 0
	}
}

// loadWithVips decodes path shrunk to fit targetWidth x targetHeight.
func loadWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	logging.Debug("Loading %s with vips (target: %dx%d)", filepath.Base(path), targetWidth, targetHeight)

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 95, OptimizeCoding: true})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

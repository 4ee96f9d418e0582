package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"snapcapsule/internal/filesystem"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/mediaindex"
	"snapcapsule/internal/metrics"
)

// ErrDecodeFailure is returned when no candidate image could be decoded.
// Callers show Placeholder instead.
var ErrDecodeFailure = errors.New("image decode failed")

// Companion file suffixes, relative to the base stem.
const (
	ImageCompanion   = mediaindex.ImageSuffix + ".jpg"
	CaptionCompanion = mediaindex.CaptionSuffix + ".png"
)

// DefaultJPEGQuality is used by EncodeJPEG when quality is out of range.
const DefaultJPEGQuality = 85

// Options configures a Resolver.
type Options struct {
	MaxDimension int
	MaxPixels    int
	UseVips      bool
}

// Resolver turns an indexed media path into a single displayable image.
type Resolver struct {
	maxDimension int
	maxPixels    int
	useVips      bool
}

// NewResolver creates a Resolver. Zero limits fall back to the package
// defaults.
func NewResolver(opts Options) *Resolver {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = MaxImageDimension
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = MaxImagePixels
	}
	return &Resolver{
		maxDimension: opts.MaxDimension,
		maxPixels:    opts.MaxPixels,
		useVips:      opts.UseVips,
	}
}

// Companions returns the _image and _caption paths belonging to path. A
// path that is itself a companion maps to its siblings.
func Companions(path string) (imagePath, captionPath string) {
	dir, stem := mediaindex.BaseStem(path)
	return filepath.Join(dir, stem+ImageCompanion), filepath.Join(dir, stem+CaptionCompanion)
}

// GetDisplayImage returns the image to show for path. When both companions
// exist the caption is composited over the _image base; otherwise the
// _image file, then path itself, are tried in turn.
func (r *Resolver) GetDisplayImage(path string) (image.Image, error) {
	start := time.Now()
	defer func() {
		metrics.DisplayRenderDuration.Observe(time.Since(start).Seconds())
	}()

	imagePath, captionPath := Companions(path)
	hasImage := isFile(imagePath)

	if hasImage && isFile(captionPath) {
		img, err := r.composite(imagePath, captionPath)
		if err == nil {
			metrics.DisplayRendersTotal.WithLabelValues("composited").Inc()
			return img, nil
		}
		logging.Debug("Compositing %s failed: %v", filepath.Base(imagePath), err)
	}

	if hasImage {
		img, err := r.open(imagePath)
		if err == nil {
			metrics.DisplayRendersTotal.WithLabelValues("primary").Inc()
			return img, nil
		}
		logging.Debug("Opening %s failed: %v", filepath.Base(imagePath), err)
	}

	img, err := r.open(path)
	if err != nil {
		metrics.DisplayRendersTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailure, path, err)
	}
	metrics.DisplayRendersTotal.WithLabelValues("primary").Inc()
	return img, nil
}

// composite flattens the caption overlay onto the base image. A caption
// that fails to decode leaves the base image alone.
func (r *Resolver) composite(basePath, captionPath string) (image.Image, error) {
	base, err := r.open(basePath)
	if err != nil {
		return nil, err
	}

	overlay, err := imaging.Open(captionPath)
	if err != nil {
		logging.Debug("Caption %s unreadable, using base only: %v", filepath.Base(captionPath), err)
		return base, nil
	}

	bounds := base.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if ob := overlay.Bounds(); ob.Dx() != w || ob.Dy() != h {
		overlay = imaging.Resize(overlay, w, h, imaging.Lanczos)
	}

	canvas := imaging.New(w, h, color.Black)
	canvas = imaging.Overlay(canvas, base, image.Pt(0, 0), 1.0)
	return imaging.Overlay(canvas, overlay, image.Pt(0, 0), 1.0), nil
}

// Placeholder returns a neutral grey image for media that cannot be shown.
func Placeholder(width, height int) image.Image {
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	return imaging.New(width, height, color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff})
}

// EncodeJPEG writes img as a JPEG.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

func isFile(path string) bool {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return err == nil && info.Mode().IsRegular()
}

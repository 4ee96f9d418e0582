package display

import (
	"fmt"
	"image"
	"os"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support

	"snapcapsule/internal/logging"
)

const (
	// MaxImageDimension is the maximum width or height we'll return.
	// Larger images are downscaled on load.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll
	// decode at full size. ~20MP uses ~80MB in RGBA.
	MaxImagePixels = 20_000_000
)

// open decodes path, downscaling if it exceeds the resolver's limits.
func (r *Resolver) open(path string) (image.Image, error) {
	width, height, err := imageDimensions(path)
	if err != nil {
		return nil, err
	}

	targetWidth, targetHeight, constrain := fitWithin(width, height, r.maxDimension, r.maxPixels)
	if !constrain {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	if r.useVips && IsVipsAvailable() {
		img, err := loadWithVips(path, targetWidth, targetHeight)
		if err == nil {
			return img, nil
		}
		logging.Warn("vips load failed for %s, falling back: %v", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// fitWithin scales width x height down to fit maxDimension and maxPixels,
// keeping the aspect ratio.
func fitWithin(width, height, maxDimension, maxPixels int) (int, int, bool) {
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return width, height, false
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if pixels := targetWidth * targetHeight; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	return max(targetWidth, 1), max(targetHeight, 1), true
}

// imageDimensions reads the image header without decoding pixels.
func imageDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}

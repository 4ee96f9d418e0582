// Package display produces the single image shown for a media file.
//
// Snaps with a caption are exported as a {stem}_image.jpg base and a
// {stem}_caption.png transparent overlay. GetDisplayImage composites the
// pair (resampling the overlay with Lanczos when sizes differ) and falls
// back to the base alone, then to the file itself. Nothing here panics or
// fails on a malformed companion; total failure is ErrDecodeFailure and
// callers substitute Placeholder.
//
// Oversized images are downscaled on load, optionally through libvips
// (InitVips) which can shrink JPEGs during decode.
package display

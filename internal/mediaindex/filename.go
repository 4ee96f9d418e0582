package mediaindex

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"snapcapsule/internal/mediatypes"
)

// VariantKind identifies which rendition of a piece of media a file holds.
type VariantKind string

// Known variants. Image is the flattened preview, Caption and Overlay hold
// only the overlay layer.
const (
	VariantPrimary VariantKind = "primary"
	VariantImage   VariantKind = "image"
	VariantCaption VariantKind = "caption"
	VariantOverlay VariantKind = "overlay"
	VariantUnknown VariantKind = "unknown"
)

// Filename decoration tokens.
const (
	ImageSuffix   = "_image"
	CaptionSuffix = "_caption"
	MediaPrefix   = "media~"
	OverlayPrefix = "overlay~"
)

// TimestampLayout is the date-time layout embedded at the start of memory
// filenames.
const TimestampLayout = "2006-01-02_15-04-05"

var (
	timestampPrefix   = regexp.MustCompile(`^` + timestampPattern)
	timestampAnywhere = regexp.MustCompile(timestampPattern)
)

const timestampPattern = `\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`

// rank orders variants for key conflicts. Overlay-only files rank lowest so
// they are never what a content id resolves to when anything else exists.
func (v VariantKind) rank() int {
	if !v.Displayable() {
		return 1
	}
	switch v {
	case VariantImage:
		return 4
	case VariantPrimary:
		return 3
	default:
		return 2
	}
}

// Displayable reports whether the variant can be shown on its own.
func (v VariantKind) Displayable() bool {
	return v != VariantCaption && v != VariantOverlay
}

// Identity holds the keys derived from one filename.
type Identity struct {
	Stem      string
	ContentID string // empty when the name carries no id
	Timestamp string // leading YYYY-MM-DD_HH-MM-SS, if any
	Variant   VariantKind
}

// ParseFilename derives the identity keys of a media filename such as
// "2023-01-02_media~ABC_image.jpg" or "2024-05-01_07-30-00.mp4".
func ParseFilename(name string) Identity {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	id := Identity{Stem: stem, Variant: VariantUnknown}

	base := stem
	switch {
	case strings.HasSuffix(base, ImageSuffix):
		base = strings.TrimSuffix(base, ImageSuffix)
		id.Variant = VariantImage
	case strings.HasSuffix(base, CaptionSuffix):
		base = strings.TrimSuffix(base, CaptionSuffix)
		id.Variant = VariantCaption
	}

	var rest string
	if ts := timestampPrefix.FindString(base); ts != "" {
		id.Timestamp = ts
		rest = strings.TrimPrefix(strings.TrimPrefix(base, ts), "_")
	} else if _, after, ok := strings.Cut(base, "_"); ok {
		rest = after
	}

	switch {
	case strings.HasPrefix(rest, OverlayPrefix):
		rest = strings.TrimPrefix(rest, OverlayPrefix)
		if id.Variant == VariantUnknown {
			id.Variant = VariantOverlay
		}
	case strings.HasPrefix(rest, MediaPrefix):
		rest = strings.TrimPrefix(rest, MediaPrefix)
	}
	id.ContentID = rest

	if id.Variant == VariantUnknown && mediatypes.IsMediaFile(mediatypes.Ext(name)) {
		id.Variant = VariantPrimary
	}
	return id
}

// ParseTimestamp returns the time encoded in the first YYYY-MM-DD_HH-MM-SS
// segment of a filename, interpreted as UTC. The segment need not lead the
// name.
func ParseTimestamp(name string) (time.Time, bool) {
	ts := timestampAnywhere.FindString(filepath.Base(name))
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, ts, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BaseStem strips a trailing _image or _caption from a path's stem and
// returns the directory and the bare stem companions are named after.
func BaseStem(path string) (dir, stem string) {
	dir = filepath.Dir(path)
	name := filepath.Base(path)
	stem = strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.TrimSuffix(stem, ImageSuffix)
	stem = strings.TrimSuffix(stem, CaptionSuffix)
	return dir, stem
}

package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of a media file.
type FileType string

const (
	// FileTypeImage represents a still image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeAudio represents an audio-only file.
	FileTypeAudio FileType = "audio"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// Repair target extensions. A repaired file keeps its original stem and
// takes one of these extensions.
const (
	VideoTargetExt = ".mp4"
	AudioTargetExt = ".mp3"
	JPEGTargetExt  = ".jpg"
)

// TargetExtensions lists every extension a repair can produce.
var TargetExtensions = map[string]bool{
	VideoTargetExt: true,
	AudioTargetExt: true,
	JPEGTargetExt:  true,
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".3gp":  true,
}

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".wav":  true,
	".ogg":  true,
	".opus": true,
}

// Ext returns the lowercase extension of path including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	if AudioExtensions[ext] {
		return FileTypeAudio
	}
	return FileTypeOther
}

// IsMediaFile returns true if the extension represents a supported media file.
func IsMediaFile(ext string) bool {
	return GetFileType(ext) != FileTypeOther
}

// IsRepairCandidate reports whether files with this extension are examined
// by a repair pass. Audio files are never rewritten.
func IsRepairCandidate(ext string) bool {
	t := GetFileType(ext)
	return t == FileTypeImage || t == FileTypeVideo
}

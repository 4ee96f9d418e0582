package signature

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// HeaderSize is the number of leading bytes read to classify a file.
const HeaderSize = 32

// Family is the container family a file appears to belong to based on its
// leading bytes, independent of its extension.
type Family string

const (
	FamilyJPEG     Family = "jpeg"
	FamilyPNG      Family = "png"
	FamilyGIF      Family = "gif"
	FamilyWebP     Family = "webp"
	FamilyBMP      Family = "bmp"
	FamilyHEIF     Family = "heif"
	FamilyMP4      Family = "mp4-container"
	FamilyMatroska Family = "matroska"
	FamilyAVI      Family = "avi"
	FamilyWAV      Family = "wav"
	FamilyMP3      Family = "mp3"
	FamilyOgg      Family = "ogg"
	FamilyUnknown  Family = "unknown"
)

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
	ftyp    = []byte("ftyp")
)

var heifBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true,
	"mif1": true, "msf1": true, "avif": true, "avis": true,
}

// Signature is the result of inspecting a file header.
type Signature struct {
	Family Family
	// Container is true when the header carries a media container marker
	// anywhere in its first HeaderSize bytes.
	Container bool
	// JPEGStart is true when the header begins with a JPEG start-of-image marker.
	JPEGStart bool
}

// IsStillImage reports whether the header belongs to a still image format.
func (s Signature) IsStillImage() bool {
	switch s.Family {
	case FamilyJPEG, FamilyPNG, FamilyGIF, FamilyWebP, FamilyBMP, FamilyHEIF:
		return true
	}
	return false
}

// Inspect reads the first HeaderSize bytes of path and classifies them.
func Inspect(path string) (Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signature{}, err
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Signature{}, fmt.Errorf("reading header of %s: %w", path, err)
	}

	return Classify(header[:n]), nil
}

// Classify determines the family of a header slice.
func Classify(header []byte) Signature {
	sig := Signature{
		Family:    FamilyUnknown,
		JPEGStart: bytes.HasPrefix(header, jpegSOI),
	}

	switch {
	case sig.JPEGStart:
		sig.Family = FamilyJPEG

	case bytes.HasPrefix(header, []byte{0x89, 'P', 'N', 'G'}):
		sig.Family = FamilyPNG

	case bytes.HasPrefix(header, []byte("GIF8")):
		sig.Family = FamilyGIF

	case len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")):
		switch string(header[8:12]) {
		case "WEBP":
			sig.Family = FamilyWebP
		case "AVI ":
			sig.Family = FamilyAVI
			sig.Container = true
		case "WAVE":
			sig.Family = FamilyWAV
			sig.Container = true
		}

	case bytes.HasPrefix(header, []byte("BM")):
		sig.Family = FamilyBMP

	case len(header) >= 12 && bytes.Equal(header[4:8], ftyp):
		if heifBrands[string(header[8:12])] {
			sig.Family = FamilyHEIF
		} else {
			sig.Family = FamilyMP4
			sig.Container = true
		}

	case bytes.HasPrefix(header, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		sig.Family = FamilyMatroska
		sig.Container = true

	case bytes.HasPrefix(header, []byte("ID3")):
		sig.Family = FamilyMP3
		sig.Container = true

	case bytes.HasPrefix(header, []byte("OggS")):
		sig.Family = FamilyOgg
		sig.Container = true
	}

	// A misaligned ISO-BMFF box still gives the file away.
	if !sig.Container && sig.Family != FamilyHEIF && bytes.Contains(header, ftyp) {
		sig.Container = true
		if sig.Family == FamilyUnknown {
			sig.Family = FamilyMP4
		}
	}

	return sig
}

// FindJPEG locates the first JPEG start-of-image marker and the last
// end-of-image marker in data. It returns the byte range [start, end) that
// holds the embedded JPEG, end being just past the EOI marker.
func FindJPEG(data []byte) (start, end int, ok bool) {
	soi := bytes.Index(data, jpegSOI)
	eoi := bytes.LastIndex(data, jpegEOI)
	if soi == -1 || eoi == -1 || eoi <= soi {
		return 0, 0, false
	}
	return soi, eoi + len(jpegEOI), true
}

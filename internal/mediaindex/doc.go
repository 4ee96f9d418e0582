// Package mediaindex maps logical media references to files on disk.
//
// A snapchat export names media as {date}_{content-id}[_image|_caption].{ext},
// with optional media~ and overlay~ type prefixes on the id, and memories as
// {YYYY-MM-DD_HH-MM-SS}.{ext}. Build scans one or more folders into a single
// Index where each file is reachable by its full name, its stem, its content
// id and its timestamp prefix.
//
// When two files collapse to the same derived key the higher-ranked variant
// wins: the _image preview, then the primary file, then anything else, and
// overlay-only files last. Equal ranks keep the file scanned first, so a
// rebuild over an unchanged folder yields the same mapping. Overlays are
// reached through the display package, never through the index.
package mediaindex

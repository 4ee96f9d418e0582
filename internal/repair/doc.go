// Package repair finds media files whose contents do not match their
// extension and rewrites them, keeping the original as an undo record.
//
// Classify reads the file header and, for containers, asks the external
// tool which streams are inside:
//
//   - an image extension holding a video container is re-encoded to .mp4
//   - a container holding only audio is transcoded to .mp3
//   - an image extension with neither a known image header nor a container
//     marker is treated as a damaged JPEG and the bytes between the first
//     SOI and last EOI marker are extracted
//   - a container whose streams cannot be determined gets a forced video
//     repair
//
// A repair is produced in a scratch directory inside the file's folder,
// then committed by moving the original into repair_backups, moving the new
// file into place and restoring the timestamp from the filename. A failed
// step undoes the ones before it. RunRevert moves backups back and deletes
// their replacements.
//
// Passes run sequentially, hold an exclusive claim on their folders and
// check for cancellation only between files.
package repair

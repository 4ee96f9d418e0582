// Package library is the session object for one loaded export.
//
// A Library holds the chat and memory records and the media index built
// over the chat media and memories folders. Lookups take a read lock and
// always see a complete index; Reload builds a new index and swaps it in.
// Repair and revert passes trigger a Reload when they changed files, and
// can run as a single background job whose progress is exposed through
// CurrentJob.
package library

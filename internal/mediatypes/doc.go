// Package mediatypes provides shared type definitions and utilities for media file
// handling across snapcapsule.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles.
//
// # File Types
//
// GetFileType classifies a file by extension only:
//
//	ext := mediatypes.Ext(filename)
//	switch mediatypes.GetFileType(ext) {
//	case mediatypes.FileTypeImage:
//	    // still image
//	case mediatypes.FileTypeVideo:
//	    // video container
//	}
//
// The extension says what a file claims to be, not what it is. The
// signature package reads the bytes.
//
// # Repair Targets
//
// VideoTargetExt, AudioTargetExt and JPEGTargetExt are the only extensions a
// repair produces; TargetExtensions is consulted by revert when removing
// repaired siblings.
package mediatypes

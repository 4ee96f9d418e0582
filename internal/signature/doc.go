// Package signature classifies files by their magic bytes.
//
// Snapchat exports routinely store videos and voice notes under a .jpg
// extension. Inspect reads the first HeaderSize bytes and reports the
// apparent container family, whether any container marker (ISO-BMFF ftyp,
// Matroska EBML, RIFF AVI/WAVE, ID3, Ogg) is present, and whether the
// header starts with a JPEG SOI marker. FindJPEG recovers a JPEG embedded
// after a damaged header.
package signature

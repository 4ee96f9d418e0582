// Package transcoder wraps the ffprobe and ffmpeg command line tools.
//
// It supports:
//   - Listing the stream kinds (video, audio) inside a container
//   - Re-encoding a damaged or mislabeled container to H.264/AAC MP4
//   - Extracting the audio track of an audio-only container to MP3
//
// Every invocation runs under its own timeout and reports a *ToolError on
// failure. ffprobe is looked up next to the configured ffmpeg binary unless
// set explicitly.
package transcoder

// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// audio files.
//
// Inspect runs ffprobe limited to audio streams; Parse decodes a captured
// payload. Result helpers expose duration, sample rate, size, and bitrate.
package ffprobe

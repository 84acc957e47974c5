// Package audio wraps the ffmpeg invocations used to build episodes.
//
// Settings carries the encoding parameters fixed for every episode run.
// FFmpeg implements Processor: it concatenates clips (re-encoding to the
// configured MP3 settings so heterogeneous inputs such as music beds and TTS
// output line up), renders silence, and measures durations via ffprobe.
// Outputs are written to a temporary sibling and renamed into place.
package audio

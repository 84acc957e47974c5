// Package logging builds the slog loggers newscast writes to stderr and
// paths.log_dir/newscast.log.
//
// Console output is a compact human format with episode and segment
// prefixes; JSON output carries the same attributes one object per line.
// WithContext pulls episode, segment, stage and request identifiers out of a
// context so stage code rarely passes them by hand, and ForStage applies the
// per-stage level overrides from [logging.stage_overrides].
package logging

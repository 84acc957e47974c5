package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newscast/internal/fileutil"
	"newscast/internal/logging"
	"newscast/internal/media/audio"
	"newscast/internal/services"
	"newscast/internal/services/tts"
	"newscast/internal/stage"
	"newscast/internal/textutil"
)

// ErrNarration marks a segment whose audio could not be produced.
var ErrNarration = errors.New("narration failed")

// Request describes one segment to narrate.
type Request struct {
	Index int
	Text  string
	// OutputPath receives the finished segment clip.
	OutputPath string
	// WorkDir holds intermediate chunk clips; it is shared across segments.
	WorkDir string
}

// Result describes a finished segment clip.
type Result struct {
	AudioPath string
	Duration  time.Duration
	Chunks    int
}

// Synthesizer narrates segment scripts with a TTS backend and joins the
// chunks with the audio processor.
type Synthesizer struct {
	speaker   tts.Speaker
	processor audio.Processor
	logger    *slog.Logger
}

// New returns a Synthesizer.
func New(speaker tts.Speaker, processor audio.Processor, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		speaker:   speaker,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "narration"),
	}
}

// Synthesize renders req.Text to req.OutputPath. Text longer than the
// backend limit is split on sentence boundaries; the reported duration is
// the sum of the chunk durations.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, narrationError(services.Wrap(services.ErrValidation, "narration", "synthesize", "empty script", nil))
	}
	if req.OutputPath == "" || req.WorkDir == "" {
		return Result{}, narrationError(services.Wrap(services.ErrValidation, "narration", "synthesize", "output path and work dir are required", nil))
	}
	logger := logging.WithContext(ctx, s.logger)

	if err := s.removeStale(req); err != nil {
		return Result{}, narrationError(err)
	}
	for _, dir := range []string{filepath.Dir(req.OutputPath), req.WorkDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, narrationError(services.Wrap(services.ErrConfiguration, "narration", "prepare", "create directory", err))
		}
	}

	chunks := textutil.Chunk(req.Text, s.speaker.MaxChars())
	paths := make([]string, 0, len(chunks))
	defer func() {
		for _, p := range paths {
			_ = fileutil.RemoveIfExists(p)
		}
	}()

	var total time.Duration
	for i, chunk := range chunks {
		path := chunkPath(req, i+1, s.speaker.Format())
		paths = append(paths, path)
		start := time.Now()
		if err := s.speaker.Speak(ctx, chunk, path); err != nil {
			return Result{}, narrationError(err)
		}
		length, err := s.processor.Probe(ctx, path)
		if err != nil {
			return Result{}, narrationError(err)
		}
		total += length
		logger.Debug("chunk synthesized",
			logging.Int("chunk", i+1),
			logging.Int("chunks", len(chunks)),
			logging.Int("chars", len(chunk)),
			logging.Duration("audio", length),
			logging.Duration("elapsed", time.Since(start)),
		)
	}

	if err := s.processor.Concat(ctx, paths, req.OutputPath); err != nil {
		return Result{}, narrationError(err)
	}
	total = total.Round(time.Millisecond)
	logger.Info("segment narrated",
		logging.Event("segment_narrated"),
		logging.String("backend", s.speaker.Name()),
		logging.Int("chunks", len(chunks)),
		logging.Duration("audio", total),
		logging.String("path", req.OutputPath),
	)
	return Result{AudioPath: req.OutputPath, Duration: total, Chunks: len(chunks)}, nil
}

// removeStale deletes a previous clip and leftover chunks for the segment.
func (s *Synthesizer) removeStale(req Request) error {
	stale, err := filepath.Glob(filepath.Join(req.WorkDir, chunkPrefix(req.Index)+"*"))
	if err != nil {
		return services.Wrap(services.ErrValidation, "narration", "cleanup", "bad work dir pattern", err)
	}
	stale = append(stale, req.OutputPath)
	for _, path := range stale {
		if err := fileutil.RemoveIfExists(path); err != nil {
			return services.Wrap(services.ErrConfiguration, "narration", "cleanup", "remove stale artifact", err)
		}
	}
	return nil
}

func chunkPrefix(index int) string {
	return fmt.Sprintf("segment_%d_chunk_", index)
}

func chunkPath(req Request, n int, format string) string {
	if format == "" {
		format = "mp3"
	}
	return filepath.Join(req.WorkDir, fmt.Sprintf("%s%02d.%s", chunkPrefix(req.Index), n, format))
}

func narrationError(err error) error {
	return fmt.Errorf("%w: %w", ErrNarration, err)
}

// HealthCheck reports the TTS backend's readiness under the narration name.
func (s *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	health := s.speaker.HealthCheck(ctx)
	detail := s.speaker.Name()
	if health.Detail != "" {
		detail += ": " + health.Detail
	}
	return stage.Health{Name: "narration", Ready: health.Ready, Detail: detail}
}

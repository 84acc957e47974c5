// Package tts provides the text-to-speech backends used for narration.
//
// Backends implement Speaker and are selected by the tts.backend setting:
//   - openai: HTTP POST to an OpenAI-compatible /v1/audio/speech endpoint
//   - command: an external binary (piper, espeak-ng, ...) that reads text on
//     stdin and writes audio to stdout
//
// Transient failures are retried inside the backend with exponential
// backoff; callers see either success or a classified error.
package tts

import (
	"context"
	"fmt"
	"time"

	"newscast/internal/config"
	"newscast/internal/services/retry"
	"newscast/internal/stage"
)

// Speaker converts text to an audio file.
type Speaker interface {
	// Name identifies the backend in logs and health output.
	Name() string
	// Format is the container extension the backend writes (mp3, wav).
	Format() string
	// MaxChars is the largest input the backend accepts in one call.
	MaxChars() int
	// Speak synthesizes text into output, replacing any existing file.
	Speak(ctx context.Context, text, output string) error
	HealthCheck(ctx context.Context) stage.Health
}

// New builds the configured backend.
func New(cfg *config.Config) (Speaker, error) {
	policy := retry.Policy{
		Attempts:  cfg.TTS.RetryAttempts,
		BaseDelay: time.Duration(cfg.TTS.RetryBaseMillis) * time.Millisecond,
		MaxDelay:  time.Duration(cfg.TTS.RetryMaxMillis) * time.Millisecond,
	}
	switch cfg.TTS.Backend {
	case config.TTSBackendOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:   cfg.TTS.APIKey,
			BaseURL:  cfg.TTS.BaseURL,
			Model:    cfg.TTS.Model,
			Voice:    cfg.TTS.Voice,
			MaxChars: cfg.TTS.MaxChars,
			Timeout:  time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
		}, policy), nil
	case config.TTSBackendCommand:
		return NewCommand(CommandConfig{
			Binary:   cfg.TTS.Command,
			Args:     cfg.TTS.CommandArgs,
			MaxChars: cfg.TTS.MaxChars,
			Timeout:  time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
		}, policy), nil
	default:
		return nil, fmt.Errorf("tts: unsupported backend %q", cfg.TTS.Backend)
	}
}

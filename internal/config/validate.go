package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEpisode(); err != nil {
		return err
	}
	if err := c.validateCollector(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateEpisode() error {
	if err := ensurePositiveMap(map[string]int{
		"episode.segments":                 c.Episode.Segments,
		"episode.target_duration_minutes":  c.Episode.TargetDurationMinutes,
		"episode.max_articles":             c.Episode.MaxArticles,
		"episode.worker_count":             c.Episode.WorkerCount,
		"episode.assembly_timeout_seconds": c.Episode.AssemblyTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Episode.Segments > 50 {
		return errors.New("episode.segments must be 50 or fewer")
	}
	return nil
}

func (c *Config) validateCollector() error {
	if err := ensurePositiveMap(map[string]int{
		"collector.per_source_limit":       c.Collector.PerSourceLimit,
		"collector.source_timeout_seconds": c.Collector.SourceTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Collector.DedupThreshold <= 0 || c.Collector.DedupThreshold > 1 {
		return errors.New("collector.dedup_threshold must be in (0, 1]")
	}
	if c.Collector.RecencyHalfLifeHours <= 0 {
		return errors.New("collector.recency_half_life_hours must be positive")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.Backend {
	case TTSBackendOpenAI:
	case TTSBackendCommand:
		if c.TTS.Command == "" {
			return errors.New("tts.command must be set when tts.backend is \"command\"")
		}
	default:
		return fmt.Errorf("tts.backend: unsupported value %q (expected openai or command)", c.TTS.Backend)
	}
	if c.TTS.RetryMaxMillis < c.TTS.RetryBaseMillis {
		return errors.New("tts.retry_max_millis must be >= tts.retry_base_millis")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if _, ok := audioPresets[c.Audio.Preset]; !ok && c.Audio.Preset != "custom" {
		return fmt.Errorf("audio.preset: unsupported value %q (expected fast, high_quality, or custom)", c.Audio.Preset)
	}
	if c.Audio.Format != "mp3" {
		return fmt.Errorf("audio.format: unsupported value %q", c.Audio.Format)
	}
	if c.Audio.Bitrate == "" {
		return errors.New("audio.bitrate must be set")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	if c.Audio.Quality < 0 || c.Audio.Quality > 9 {
		return errors.New("audio.quality must be between 0 and 9")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	switch c.Assembly.GapPolicy {
	case GapPolicySkip, GapPolicySilence, GapPolicyFiller:
		return nil
	default:
		return fmt.Errorf("assembly.gap_policy: unsupported value %q (expected skip, silence, or filler)", c.Assembly.GapPolicy)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	for stage, level := range c.Logging.StageOverrides {
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.stage_overrides.%s: unsupported level %q", stage, level)
		}
	}
	return nil
}

// ValidateForGeneration reports credentials that generation requires but that
// read-only commands (list, status) do not.
func (c *Config) ValidateForGeneration() error {
	if c.TTS.Backend == TTSBackendOpenAI && strings.TrimSpace(c.TTS.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tts.api_key is required for the openai backend. Set OPENAI_API_KEY or edit %s (create with 'newscast config init')", defaultPath)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

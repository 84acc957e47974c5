package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCollector(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTTS()
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	c.normalizeAssembly()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.EpisodesDir) == "" {
		c.Paths.EpisodesDir = defaultEpisodesDir
	}
	if c.Paths.EpisodesDir, err = expandPath(c.Paths.EpisodesDir); err != nil {
		return fmt.Errorf("paths.episodes_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCollector() error {
	var err error
	c.Collector.CatalogPath = strings.TrimSpace(c.Collector.CatalogPath)
	if c.Collector.CatalogPath != "" {
		if c.Collector.CatalogPath, err = expandPath(c.Collector.CatalogPath); err != nil {
			return fmt.Errorf("collector.catalog_path: %w", err)
		}
	}
	c.Collector.UserAgent = strings.TrimSpace(c.Collector.UserAgent)
	if c.Collector.UserAgent == "" {
		c.Collector.UserAgent = defaultUserAgent
	}
	if c.Collector.EnrichLimit <= 0 {
		c.Collector.EnrichLimit = defaultEnrichLimit
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range []string{"LLM_API_KEY", "GROQ_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.Backend = strings.ToLower(strings.TrimSpace(c.TTS.Backend))
	if c.TTS.Backend == "" {
		c.TTS.Backend = defaultTTSBackend
	}
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	if c.TTS.Model == "" {
		c.TTS.Model = defaultTTSModel
	}
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	if c.TTS.MaxChars <= 0 {
		c.TTS.MaxChars = defaultTTSMaxChars
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
	if c.TTS.RetryAttempts <= 0 {
		c.TTS.RetryAttempts = defaultTTSRetryAttempts
	}
	if c.TTS.RetryBaseMillis <= 0 {
		c.TTS.RetryBaseMillis = defaultTTSRetryBaseMillis
	}
	if c.TTS.RetryMaxMillis <= 0 {
		c.TTS.RetryMaxMillis = defaultTTSRetryMaxMillis
	}
	c.TTS.Command = strings.TrimSpace(c.TTS.Command)
}

func (c *Config) normalizeAudio() error {
	c.Audio.Preset = strings.ToLower(strings.TrimSpace(c.Audio.Preset))
	if c.Audio.Preset == "" {
		c.Audio.Preset = defaultAudioPreset
	}
	if preset, ok := audioPresets[c.Audio.Preset]; ok {
		if strings.TrimSpace(c.Audio.Bitrate) == "" {
			c.Audio.Bitrate = preset.bitrate
		}
		if c.Audio.SampleRate <= 0 {
			c.Audio.SampleRate = preset.sampleRate
		}
		if c.Audio.Channels <= 0 {
			c.Audio.Channels = preset.channels
		}
		if c.Audio.Quality <= 0 {
			c.Audio.Quality = preset.quality
		}
	}
	c.Audio.Format = strings.ToLower(strings.TrimSpace(c.Audio.Format))
	if c.Audio.Format == "" {
		c.Audio.Format = defaultAudioFormat
	}
	c.Audio.Bitrate = strings.TrimSpace(c.Audio.Bitrate)
	if strings.TrimSpace(c.Audio.FFmpegBinary) == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Audio.FFprobeBinary) == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Audio.CommandTimeoutSeconds <= 0 {
		c.Audio.CommandTimeoutSeconds = defaultAudioCommandTimeout
	}
	var err error
	if c.Audio.IntroPath = strings.TrimSpace(c.Audio.IntroPath); c.Audio.IntroPath != "" {
		if c.Audio.IntroPath, err = expandPath(c.Audio.IntroPath); err != nil {
			return fmt.Errorf("audio.intro_path: %w", err)
		}
	}
	if c.Audio.OutroPath = strings.TrimSpace(c.Audio.OutroPath); c.Audio.OutroPath != "" {
		if c.Audio.OutroPath, err = expandPath(c.Audio.OutroPath); err != nil {
			return fmt.Errorf("audio.outro_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAssembly() {
	c.Assembly.GapPolicy = strings.ToLower(strings.TrimSpace(c.Assembly.GapPolicy))
	if c.Assembly.GapPolicy == "" {
		c.Assembly.GapPolicy = defaultGapPolicy
	}
	if c.Assembly.GapSeconds <= 0 {
		c.Assembly.GapSeconds = defaultGapSeconds
	}
	c.Assembly.FillerText = strings.TrimSpace(c.Assembly.FillerText)
	if c.Assembly.FillerText == "" {
		c.Assembly.FillerText = defaultFillerText
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			stage = strings.ToLower(strings.TrimSpace(stage))
			if stage == "" {
				continue
			}
			normalized[stage] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.StageOverrides = normalized
	}
}

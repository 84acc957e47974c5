package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	EpisodesDir string `toml:"episodes_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Episode contains the per-run shape of generated episodes.
type Episode struct {
	Segments               int `toml:"segments"`
	TargetDurationMinutes  int `toml:"target_duration_minutes"`
	MaxArticles            int `toml:"max_articles"`
	WorkerCount            int `toml:"worker_count"`
	AssemblyTimeoutSeconds int `toml:"assembly_timeout_seconds"`
}

// Collector contains configuration for article collection.
type Collector struct {
	// CatalogPath points at a YAML feed catalog; empty uses the built-in catalog.
	CatalogPath          string  `toml:"catalog_path"`
	PerSourceLimit       int     `toml:"per_source_limit"`
	SourceTimeoutSeconds int     `toml:"source_timeout_seconds"`
	DedupThreshold       float64 `toml:"dedup_threshold"`
	RecencyHalfLifeHours float64 `toml:"recency_half_life_hours"`
	EnrichFullText       bool    `toml:"enrich_full_text"`
	EnrichLimit          int     `toml:"enrich_limit"`
	UserAgent            string  `toml:"user_agent"`
}

// LLM contains chat-completion connection settings used for scripts and
// free-text topic resolution.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// TTS contains text-to-speech backend settings.
type TTS struct {
	Backend         string   `toml:"backend"`
	APIKey          string   `toml:"api_key"`
	BaseURL         string   `toml:"base_url"`
	Model           string   `toml:"model"`
	Voice           string   `toml:"voice"`
	MaxChars        int      `toml:"max_chars"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	RetryAttempts   int      `toml:"retry_attempts"`
	RetryBaseMillis int      `toml:"retry_base_millis"`
	RetryMaxMillis  int      `toml:"retry_max_millis"`
	Command         string   `toml:"command"`
	CommandArgs     []string `toml:"command_args"`
}

// Audio contains encoding parameters fixed for every episode and the music beds.
type Audio struct {
	Preset                string `toml:"preset"`
	Format                string `toml:"format"`
	Bitrate               string `toml:"bitrate"`
	SampleRate            int    `toml:"sample_rate"`
	Channels              int    `toml:"channels"`
	Quality               int    `toml:"quality"`
	IntroPath             string `toml:"intro_path"`
	OutroPath             string `toml:"outro_path"`
	FFmpegBinary          string `toml:"ffmpeg_binary"`
	FFprobeBinary         string `toml:"ffprobe_binary"`
	CommandTimeoutSeconds int    `toml:"command_timeout_seconds"`
}

// Assembly contains the policy for stitching segments into an episode.
type Assembly struct {
	GapPolicy  string  `toml:"gap_policy"`
	GapSeconds float64 `toml:"gap_seconds"`
	FillerText string  `toml:"filler_text"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Started        bool   `toml:"started"`
	Completed      bool   `toml:"completed"`
	Failed         bool   `toml:"failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for newscast.
//
// Configuration sections by subsystem:
//   - Paths: episode output, state (catalog database, locks), and logs
//   - Episode: segment count, target duration, worker pool size
//   - Collector: feed catalog, fetch limits, dedup and ranking knobs
//   - LLM: chat completion endpoint used for scripts and topic resolution
//   - TTS: narration backend (openai or external command)
//   - Audio: encoding preset, music beds, ffmpeg/ffprobe binaries
//   - Assembly: gap policy for failed segments
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and per-stage overrides
type Config struct {
	Paths         Paths         `toml:"paths"`
	Episode       Episode       `toml:"episode"`
	Collector     Collector     `toml:"collector"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Audio         Audio         `toml:"audio"`
	Assembly      Assembly      `toml:"assembly"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("newscast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories newscast writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.EpisodesDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogDBPath returns the SQLite episode catalog location.
func (c *Config) CatalogDBPath() string {
	return filepath.Join(c.Paths.StateDir, "episodes.db")
}

// LockPath returns the file lock guarding episode number allocation.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "episodes.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

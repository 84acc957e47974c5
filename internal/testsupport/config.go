package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"newscast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Notifications are disabled and the audio preset is resolved.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.EpisodesDir = filepath.Join(base, "episodes")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.TTS.APIKey = "test"
	cfgVal.LLM.APIKey = ""
	cfgVal.Audio.Bitrate = "128k"
	cfgVal.Audio.SampleRate = 22050
	cfgVal.Audio.Channels = 1
	cfgVal.Audio.Quality = 4

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSegments sets the default segment count and worker pool size.
func WithSegments(segments, workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Episode.Segments = segments
		b.cfg.Episode.WorkerCount = workers
	}
}

// WithGapPolicy selects how assembly handles failed segments.
func WithGapPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Assembly.GapPolicy = policy
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.EpisodesDir)
}

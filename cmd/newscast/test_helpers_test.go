package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newscast/internal/config"
	"newscast/internal/episode"
	"newscast/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("NTFY_TOPIC", "")

	configPath := filepath.Join(homeDir, ".config", "newscast", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nepisodes_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n[tts]\napi_key = %q\n",
		cfg.Paths.EpisodesDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.TTS.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedFinishedEpisode writes a terminal episode to disk and the catalog the
// way a finished generate run leaves them.
func seedFinishedEpisode(t *testing.T, cfg *config.Config, topic episode.TopicSpec, status episode.Status) *episode.Episode {
	t.Helper()
	store := episode.NewStore(episode.Layout{Root: cfg.Paths.EpisodesDir}, cfg.LockPath())
	number, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	req, err := episode.NewRequest(topic, 2, now)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	ep := episode.New(req, number, store.Layout(), now)
	for i := range ep.Segments {
		ep.Segments[i].Title = fmt.Sprintf("Story %d", i+1)
		ep.Segments[i].Status = episode.SegmentFailed
		ep.Segments[i].Error = "narration failed"
	}
	if err := ep.Finish(status, "no segments completed", "external_tool", now.Add(time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := store.Save(ep); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cat := testsupport.MustOpenCatalog(t, cfg)
	if err := cat.Upsert(context.Background(), ep.Snapshot()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := cat.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return ep
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

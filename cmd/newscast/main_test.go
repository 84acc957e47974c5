package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newscast/internal/episode"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "episodes_dir")
	requireContains(t, out, redacted)
	if strings.Contains(out, `api_key = 'test'`) || strings.Contains(out, `api_key = "test"`) {
		t.Fatalf("api key leaked in output:\n%s", out)
	}
}

func TestCategoriesListsBuiltInCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"categories"}, env.configPath)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	for _, name := range []string{"technology", "science", "sports"} {
		requireContains(t, out, name)
	}
	if strings.Contains(out, "BBC News") {
		t.Fatalf("sources listed without --sources:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"categories", "--sources"}, env.configPath)
	if err != nil {
		t.Fatalf("categories --sources: %v", err)
	}
	requireContains(t, out, "BBC News")
}

func TestListEmptyCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "No episodes found")

	out, _, err = runCLI(t, []string{"list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", out)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"list", "--status", "queued"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestStatusAndListShowSeededEpisode(t *testing.T) {
	env := setupCLITestEnv(t)
	ep := seedFinishedEpisode(t, env.cfg, episode.CategoryTopic("science"), episode.StatusFailed)

	out, _, err := runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, ep.EpisodeID)
	requireContains(t, out, "category:science")
	requireContains(t, out, "Total: 1 episodes (1 failed)")

	for _, ref := range []string{ep.RequestID, ep.EpisodeID, "1"} {
		out, _, err = runCLI(t, []string{"status", ref}, env.configPath)
		if err != nil {
			t.Fatalf("status %s: %v", ref, err)
		}
		requireContains(t, out, ep.RequestID)
		requireContains(t, out, "Story 2")
		requireContains(t, out, "no segments completed")
	}

	out, _, err = runCLI(t, []string{"status", "--json", ep.EpisodeID}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var decoded episode.Episode
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, out)
	}
	if decoded.Status != episode.StatusFailed || len(decoded.Segments) != 2 {
		t.Fatalf("unexpected decoded episode: status=%s segments=%d", decoded.Status, len(decoded.Segments))
	}

	if _, _, err := runCLI(t, []string{"artifact", ep.EpisodeID}, env.configPath); err == nil {
		t.Fatal("expected artifact of a failed episode to error")
	}
}

func TestStatusUnknownEpisode(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"status", "7"}, env.configPath); err == nil {
		t.Fatal("expected unknown episode number to fail")
	}
	if _, _, err := runCLI(t, []string{"status", "no-such-request"}, env.configPath); err == nil {
		t.Fatal("expected unknown request id to fail")
	}
}

func TestGenerateRequiresExactlyOneTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"generate"}, env.configPath); err == nil {
		t.Fatal("expected generate without a topic to fail")
	}
	if _, _, err := runCLI(t, []string{"generate", "--category", "science", "--prompt", "rockets"}, env.configPath); err == nil {
		t.Fatal("expected generate with both topics to fail")
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

package episode

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEpisode(t *testing.T, segments int) (*Episode, *Store) {
	t.Helper()
	root := t.TempDir()
	store := NewStore(Layout{Root: filepath.Join(root, "episodes")}, filepath.Join(root, "episodes.lock"))
	number, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	req, err := NewRequest(PromptTopic("space exploration"), segments, testNow)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return New(req, number, store.Layout(), testNow), store
}

func TestNewCreatesContiguousPendingSegments(t *testing.T) {
	ep, _ := newTestEpisode(t, 5)
	if ep.Status != StatusRunning {
		t.Fatalf("expected running, got %s", ep.Status)
	}
	for i, seg := range ep.Segments {
		if seg.Index != i+1 {
			t.Fatalf("segment %d has index %d", i, seg.Index)
		}
		if seg.Status != SegmentPending {
			t.Fatalf("segment %d status %s", seg.Index, seg.Status)
		}
	}
	if ep.Progress() != "0 of 5 done" {
		t.Fatalf("unexpected progress %q", ep.Progress())
	}
	if ep.EpisodeID != "episode_1" {
		t.Fatalf("unexpected id %q", ep.EpisodeID)
	}
}

func TestNewRequestValidates(t *testing.T) {
	if _, err := NewRequest(TopicSpec{Mode: "weather", Value: "x"}, 3, testNow); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := NewRequest(CategoryTopic("technology"), 0, testNow); err == nil {
		t.Fatal("expected error for zero segments")
	}
	if _, err := NewRequest(PromptTopic("   "), 2, testNow); err == nil {
		t.Fatal("expected error for blank prompt")
	}
	req, err := NewRequest(CategoryTopic(" Technology "), 2, testNow)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.Topic.Value != "technology" || req.RequestID == "" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestSegmentAdvanceIsMonotonic(t *testing.T) {
	seg := Segment{Index: 3, Status: SegmentPending}
	steps := []SegmentStatus{SegmentScripting, SegmentNarrating, SegmentDone}
	for _, to := range steps {
		if err := seg.Advance(to, testNow); err != nil {
			t.Fatalf("Advance(%s): %v", to, err)
		}
	}
	if seg.StartedAt == nil || seg.FinishedAt == nil {
		t.Fatal("expected start and finish stamps")
	}
	for _, to := range []SegmentStatus{SegmentPending, SegmentScripting, SegmentNarrating, SegmentFailed, SegmentDone} {
		if err := seg.Advance(to, testNow); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected invalid transition done -> %s, got %v", to, err)
		}
	}

	skip := Segment{Index: 1, Status: SegmentPending}
	if err := skip.Advance(SegmentNarrating, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected skipping scripting to fail, got %v", err)
	}
	if err := skip.Advance(SegmentFailed, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("a stage cannot fail a pending segment, got %v", err)
	}
}

func TestSegmentAbandon(t *testing.T) {
	for _, from := range []SegmentStatus{SegmentPending, SegmentScripting, SegmentNarrating} {
		seg := Segment{Index: 2, Status: from}
		if err := seg.Abandon("cancelled", testNow); err != nil {
			t.Fatalf("Abandon from %s: %v", from, err)
		}
		if seg.Status != SegmentFailed || seg.Error != "cancelled" || seg.FinishedAt == nil {
			t.Fatalf("abandoned from %s: %+v", from, seg)
		}
	}
	for _, from := range []SegmentStatus{SegmentDone, SegmentFailed} {
		seg := Segment{Index: 2, Status: from}
		if err := seg.Abandon("cancelled", testNow); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Abandon from %s: expected ErrInvalidTransition, got %v", from, err)
		}
	}
}

func TestFinishSealsEpisode(t *testing.T) {
	ep, _ := newTestEpisode(t, 2)
	if err := ep.Finish(StatusRunning, "", "", testNow); err == nil {
		t.Fatal("expected error finishing with non-terminal status")
	}
	if err := ep.Finish(StatusPartial, "", "", testNow); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := ep.Finish(StatusFailed, "late", "", testNow); !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	if ep.CompletedAt == nil {
		t.Fatal("expected completed timestamp")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	ep, _ := newTestEpisode(t, 2)
	ep.Segments[0].SourceArticleIDs = []string{"a1"}
	ep.Assembly = &AssemblyInfo{Chapters: []Chapter{{Index: 1, ArticleIDs: []string{"a1"}}}}

	snap := ep.Snapshot()
	snap.Segments[0].SourceArticleIDs[0] = "mutated"
	snap.Segments[1].Status = SegmentDone
	snap.Assembly.Chapters[0].ArticleIDs[0] = "mutated"

	if ep.Segments[0].SourceArticleIDs[0] != "a1" {
		t.Fatal("snapshot shares segment article ids")
	}
	if ep.Segments[1].Status != SegmentPending {
		t.Fatal("snapshot shares segments")
	}
	if ep.Assembly.Chapters[0].ArticleIDs[0] != "a1" {
		t.Fatal("snapshot shares chapters")
	}
}

func TestStoreSaveRefusesAfterTerminal(t *testing.T) {
	ep, store := newTestEpisode(t, 1)
	if err := store.Save(ep); err != nil {
		t.Fatalf("Save running: %v", err)
	}
	if err := ep.Finish(StatusFailed, "collection failed", "collection", testNow); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ep); err != nil {
		t.Fatalf("Save terminal: %v", err)
	}
	ep.Error = "rewritten"
	if err := store.Save(ep); !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	loaded, err := store.Load(ep.Number)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Error != "collection failed" || loaded.Status != StatusFailed {
		t.Fatalf("unexpected on-disk episode %+v", loaded)
	}
	if loaded.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected schema version %d", loaded.SchemaVersion)
	}
}

func TestStoreAllocateIsUniqueUnderConcurrency(t *testing.T) {
	root := t.TempDir()
	store := NewStore(Layout{Root: filepath.Join(root, "episodes")}, filepath.Join(root, "episodes.lock"))
	if err := os.MkdirAll(filepath.Join(root, "episodes", "episode_7"), 0o755); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	numbers := make(chan int, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Allocate()
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			numbers <- n
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int]bool{}
	for n := range numbers {
		if n <= 7 {
			t.Fatalf("allocated %d, expected numbers after existing episode_7", n)
		}
		if seen[n] {
			t.Fatalf("number %d allocated twice", n)
		}
		seen[n] = true
	}
}

func TestStoreAllocateCreatesLockDir(t *testing.T) {
	root := t.TempDir()
	lockPath := filepath.Join(root, "state", "episodes.lock")
	store := NewStore(Layout{Root: filepath.Join(root, "episodes")}, lockPath)

	number, err := store.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if number != 1 {
		t.Fatalf("expected episode 1, got %d", number)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	if _, err := os.Stat(store.Layout().EpisodeDir(1)); err != nil {
		t.Fatalf("episode dir not created: %v", err)
	}
}

func TestStoreSealReconcilesRunningEpisode(t *testing.T) {
	ep, store := newTestEpisode(t, 3)
	_ = ep.Segments[0].Advance(SegmentScripting, testNow)
	if err := store.Save(ep); err != nil {
		t.Fatal(err)
	}
	sealed, err := store.Seal(ep.Number, "interrupted", testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed.Status != StatusFailed || sealed.ErrorKind != "interrupted" {
		t.Fatalf("unexpected sealed episode %+v", sealed)
	}
	for _, seg := range sealed.Segments {
		if seg.Status != SegmentFailed {
			t.Fatalf("segment %d left %s", seg.Index, seg.Status)
		}
	}
}

func TestSaveSegmentWritesArticleRefs(t *testing.T) {
	ep, store := newTestEpisode(t, 1)
	ep.Articles = []Article{{ID: "a1", Title: "Rover lands", Source: "NASA", URL: "https://nasa.gov/rover"}}
	seg := ep.Segments[0]
	seg.SourceArticleIDs = []string{"a1", "missing"}
	if err := store.SaveSegment(ep, seg, testNow); err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}
	data, err := os.ReadFile(store.Layout().SegmentMetadataPath(ep.Number, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"title": "Rover lands"`) {
		t.Fatalf("expected article ref in metadata: %s", data)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "/data"}
	if got := l.SegmentAudioPath(4, 2); got != filepath.Join("/data", "episode_4", "segment_2", "segment_2.mp3") {
		t.Fatalf("unexpected segment audio path %q", got)
	}
	if got := l.SegmentMetadataPath(4, 2); got != filepath.Join("/data", "episode_4", "segment_2", "segment_2_metadata.json") {
		t.Fatalf("unexpected segment metadata path %q", got)
	}
	if got := l.CompleteAudioPath(4); got != filepath.Join("/data", "episode_4", "episode_4_complete.mp3") {
		t.Fatalf("unexpected complete path %q", got)
	}
}

func TestArticleIDUsesCanonicalURL(t *testing.T) {
	a := ArticleID("http://www.Example.com/story/?utm_source=rss#top", "x", "t")
	b := ArticleID("https://example.com/story", "y", "other")
	if a != b {
		t.Fatalf("expected canonical urls to match: %s vs %s", a, b)
	}
	c := ArticleID("", "BBC", "Markets Rally!")
	d := ArticleID("", "bbc", "markets rally")
	if c != d {
		t.Fatalf("expected source+title ids to match: %s vs %s", c, d)
	}
}

func TestStoreNumbersIgnoresStrayEntries(t *testing.T) {
	root := filepath.Join(t.TempDir(), "episodes")
	store := NewStore(Layout{Root: root}, filepath.Join(t.TempDir(), "episodes.lock"))
	if numbers, err := store.Numbers(); err != nil || len(numbers) != 0 {
		t.Fatalf("expected no numbers for missing root, got %v (%v)", numbers, err)
	}
	for _, name := range []string{"episode_10", "episode_2", "episode_x", "notes"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "episode_99"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	numbers, err := store.Numbers()
	if err != nil {
		t.Fatalf("Numbers: %v", err)
	}
	if len(numbers) != 2 || numbers[0] != 2 || numbers[1] != 10 {
		t.Fatalf("unexpected numbers %v", numbers)
	}
}

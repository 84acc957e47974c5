package catalog_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"newscast/internal/catalog"
	"newscast/internal/episode"
	"newscast/internal/testsupport"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newEpisode(t *testing.T, number int, topic episode.TopicSpec, segments int) *episode.Episode {
	t.Helper()
	req, err := episode.NewRequest(topic, segments, testNow)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return episode.New(req, number, episode.Layout{Root: t.TempDir()}, testNow)
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	ep := newEpisode(t, 1, episode.CategoryTopic("technology"), 3)
	if err := store.Upsert(ctx, ep.Snapshot()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rec, err := store.Get(ctx, ep.RequestID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.Status != episode.StatusRunning || rec.SegmentsTotal != 3 || rec.SegmentsDone != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Topic != ep.Topic {
		t.Fatalf("topic round trip: got %+v want %+v", rec.Topic, ep.Topic)
	}
	if !rec.CreatedAt.Equal(testNow) {
		t.Fatalf("created_at %v", rec.CreatedAt)
	}
	if rec.CompletedAt != nil {
		t.Fatalf("running episode has completed_at %v", rec.CompletedAt)
	}

	for i := range ep.Segments {
		seg := &ep.Segments[i]
		_ = seg.Advance(episode.SegmentScripting, testNow)
		_ = seg.Advance(episode.SegmentNarrating, testNow)
		if i == 1 {
			_ = seg.Advance(episode.SegmentFailed, testNow)
			continue
		}
		_ = seg.Advance(episode.SegmentDone, testNow)
	}
	ep.CompleteAudioPath = "/tmp/episode_1_complete.mp3"
	ep.Assembly = &episode.AssemblyInfo{GapPolicy: "skip", TotalMillis: 61_500}
	if err := ep.Finish(episode.StatusPartial, "", "", testNow.Add(time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := store.Upsert(ctx, ep.Snapshot()); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	rec, err = store.GetByNumber(ctx, 1)
	if err != nil || rec == nil {
		t.Fatalf("GetByNumber: %v %v", rec, err)
	}
	if rec.Status != episode.StatusPartial {
		t.Fatalf("status %s", rec.Status)
	}
	if rec.SegmentsDone != 2 || rec.SegmentsFailed != 1 {
		t.Fatalf("counts done=%d failed=%d", rec.SegmentsDone, rec.SegmentsFailed)
	}
	if rec.Duration() != 61500*time.Millisecond {
		t.Fatalf("duration %v", rec.Duration())
	}
	if rec.CompleteAudioPath != ep.CompleteAudioPath {
		t.Fatalf("audio path %q", rec.CompleteAudioPath)
	}
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(testNow.Add(time.Minute)) {
		t.Fatalf("completed_at %v", rec.CompletedAt)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	rec, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil, got %+v", rec)
	}
}

func TestListFiltersAndOrdersNewestFirst(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for n := 1; n <= 4; n++ {
		ep := newEpisode(t, n, episode.PromptTopic("space exploration"), 2)
		if n%2 == 0 {
			if err := ep.Finish(episode.StatusFailed, "no articles", "not_found", testNow); err != nil {
				t.Fatal(err)
			}
		}
		if err := store.Upsert(ctx, ep.Snapshot()); err != nil {
			t.Fatalf("Upsert %d: %v", n, err)
		}
	}

	all, err := store.List(ctx, catalog.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].Number != 4 || all[3].Number != 1 {
		t.Fatalf("unexpected order %+v", numbers(all))
	}

	failed, err := store.List(ctx, catalog.Filter{Statuses: []episode.Status{episode.StatusFailed}, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Number != 4 || failed[0].ErrorKind != "not_found" {
		t.Fatalf("unexpected failed rows %+v", failed)
	}

	running, err := store.Running(ctx)
	if err != nil {
		t.Fatalf("Running: %v", err)
	}
	if got := numbers(running); len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Fatalf("running rows %v", got)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[episode.StatusRunning] != 2 || stats[episode.StatusFailed] != 2 {
		t.Fatalf("stats %v", stats)
	}
}

func TestMarkInterruptedOnlyTouchesRunningRows(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()

	running := newEpisode(t, 1, episode.CategoryTopic("sports"), 2)
	done := newEpisode(t, 2, episode.CategoryTopic("sports"), 2)
	if err := done.Finish(episode.StatusComplete, "", "", testNow); err != nil {
		t.Fatal(err)
	}
	for _, ep := range []*episode.Episode{running, done} {
		if err := store.Upsert(ctx, ep.Snapshot()); err != nil {
			t.Fatal(err)
		}
	}

	for _, id := range []string{running.RequestID, done.RequestID} {
		if err := store.MarkInterrupted(ctx, id, "interrupted", testNow); err != nil {
			t.Fatalf("MarkInterrupted: %v", err)
		}
	}

	rec, _ := store.Get(ctx, running.RequestID)
	if rec.Status != episode.StatusFailed || rec.ErrorKind != "interrupted" || rec.CompletedAt == nil {
		t.Fatalf("running row not interrupted: %+v", rec)
	}
	rec, _ = store.Get(ctx, done.RequestID)
	if rec.Status != episode.StatusComplete || rec.ErrorMessage != "" {
		t.Fatalf("complete row changed: %+v", rec)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ep := newEpisode(t, 7, episode.CategoryTopic("health"), 1)
	if err := store.Upsert(context.Background(), ep.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenCatalog(t, cfg)
	rec, err := reopened.GetByNumber(context.Background(), 7)
	if err != nil || rec == nil {
		t.Fatalf("expected row after reopen, got %v %v", rec, err)
	}
	if reopened.Path() != cfg.CatalogDBPath() {
		t.Fatalf("path %q", reopened.Path())
	}
}

func TestVersionMismatchRebuildsEmptyCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ep := newEpisode(t, 3, episode.CategoryTopic("sports"), 2)
	if err := store.Upsert(context.Background(), ep.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := sql.Open("sqlite", cfg.CatalogDBPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := raw.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := testsupport.MustOpenCatalog(t, cfg)
	records, err := reopened.List(context.Background(), catalog.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected rebuilt catalog to be empty, got %d rows", len(records))
	}
	if err := reopened.Upsert(context.Background(), ep.Snapshot()); err != nil {
		t.Fatalf("Upsert after rebuild: %v", err)
	}
}

func numbers(records []catalog.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Number
	}
	return out
}

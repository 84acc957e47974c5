package workflow_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"newscast/internal/assembly"
	"newscast/internal/catalog"
	"newscast/internal/config"
	"newscast/internal/episode"
	"newscast/internal/narration"
	"newscast/internal/notifications"
	"newscast/internal/script"
	"newscast/internal/testsupport"
	"newscast/internal/workflow"
)

const (
	introLength = 4 * time.Second
	outroLength = 3 * time.Second
)

type stubCollector struct {
	articles []episode.Article
	err      error

	mu    sync.Mutex
	calls int
}

func (s *stubCollector) Collect(ctx context.Context, topic episode.TopicSpec, maxArticles int) ([]episode.Article, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.articles
	if len(out) > maxArticles {
		out = out[:maxArticles]
	}
	return append([]episode.Article(nil), out...), nil
}

type narratorFunc func(ctx context.Context, req narration.Request) (narration.Result, error)

func (f narratorFunc) Synthesize(ctx context.Context, req narration.Request) (narration.Result, error) {
	return f(ctx, req)
}

type assemblerFunc func(ctx context.Context, in assembly.Input) (assembly.Result, error)

func (f assemblerFunc) Assemble(ctx context.Context, in assembly.Input) (assembly.Result, error) {
	return f(ctx, in)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) Events() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

type harness struct {
	cfg      *config.Config
	manager  *workflow.Manager
	catalog  *catalog.Store
	audio    *testsupport.FakeAudio
	speaker  *testsupport.FakeSpeaker
	notifier *recordingNotifier
}

type harnessOptions struct {
	collector workflow.ArticleCollector
	// wrap decorates the real narration stage.
	wrap func(workflow.Narrator) workflow.Narrator
	// wrapAssembler decorates the real assembly stage.
	wrapAssembler func(workflow.EpisodeAssembler) workflow.EpisodeAssembler
	config        []testsupport.ConfigOption
	noMusic       bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts.config...)
	if !opts.noMusic {
		base := testsupport.BaseDir(cfg)
		cfg.Audio.IntroPath = filepath.Join(base, "music", "intro.mp3")
		cfg.Audio.OutroPath = filepath.Join(base, "music", "outro.mp3")
		if err := testsupport.WriteClip(cfg.Audio.IntroPath, introLength); err != nil {
			t.Fatal(err)
		}
		if err := testsupport.WriteClip(cfg.Audio.OutroPath, outroLength); err != nil {
			t.Fatal(err)
		}
	}

	fakeAudio := &testsupport.FakeAudio{}
	speaker := &testsupport.FakeSpeaker{}
	var narrator workflow.Narrator = narration.New(speaker, fakeAudio, nil)
	if opts.wrap != nil {
		narrator = opts.wrap(narrator)
	}
	var assembler workflow.EpisodeAssembler = assembly.New(cfg, fakeAudio, speaker, nil)
	if opts.wrapAssembler != nil {
		assembler = opts.wrapAssembler(assembler)
	}
	coll := opts.collector
	if coll == nil {
		coll = &stubCollector{articles: sampleArticles(8)}
	}

	store := testsupport.MustOpenCatalog(t, cfg)
	notifier := &recordingNotifier{}
	manager, err := workflow.NewManager(cfg, workflow.Stages{
		Collector: coll,
		Writer:    script.NewWriter(nil, cfg.Episode.TargetDurationMinutes),
		Narrator:  narrator,
		Assembler: assembler,
	}, store, nil, workflow.WithNotifier(notifier))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(manager.Close)

	return &harness{
		cfg:      cfg,
		manager:  manager,
		catalog:  store,
		audio:    fakeAudio,
		speaker:  speaker,
		notifier: notifier,
	}
}

func (h *harness) start(t *testing.T, topic episode.TopicSpec, segments int) string {
	t.Helper()
	id, err := h.manager.StartEpisode(context.Background(), topic, segments)
	if err != nil {
		t.Fatalf("StartEpisode: %v", err)
	}
	return id
}

func (h *harness) wait(t *testing.T, requestID string) episode.Episode {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ep, err := h.manager.Wait(ctx, requestID)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ep.Status.IsTerminal() {
		t.Fatalf("episode still %s after Wait", ep.Status)
	}
	return ep
}

func sampleArticles(n int) []episode.Article {
	base := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	articles := make([]episode.Article, n)
	for i := range articles {
		url := fmt.Sprintf("https://news.example.com/story-%d", i+1)
		title := fmt.Sprintf("Orbital mission update number %d", i+1)
		articles[i] = episode.Article{
			ID:          episode.ArticleID(url, "Example Wire", title),
			Title:       title,
			Summary:     fmt.Sprintf("Engineers confirmed milestone %d of the mission today. The crew is in good health.", i+1),
			Source:      "Example Wire",
			PublishedAt: base.Add(-time.Duration(i) * time.Minute),
			URL:         url,
			Category:    "science",
		}
	}
	return articles
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func segmentStatuses(ep episode.Episode) []episode.SegmentStatus {
	out := make([]episode.SegmentStatus, len(ep.Segments))
	for i, seg := range ep.Segments {
		out[i] = seg.Status
	}
	return out
}

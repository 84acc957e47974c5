package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"newscast/internal/assembly"
	"newscast/internal/episode"
	"newscast/internal/narration"
	"newscast/internal/script"
)

// ErrNotFound is returned when a request id or its audio artifact is unknown.
var ErrNotFound = errors.New("episode not found")

// ArticleCollector gathers ranked articles for a topic.
type ArticleCollector interface {
	Collect(ctx context.Context, topic episode.TopicSpec, maxArticles int) ([]episode.Article, error)
}

// ScriptWriter produces the narration script for one planned segment.
type ScriptWriter interface {
	Write(ctx context.Context, plan script.SegmentPlan, topic episode.TopicSpec) (script.Script, error)
}

// Narrator renders a script to a segment clip.
type Narrator interface {
	Synthesize(ctx context.Context, req narration.Request) (narration.Result, error)
}

// EpisodeAssembler stitches finished segments into one file.
type EpisodeAssembler interface {
	Assemble(ctx context.Context, in assembly.Input) (assembly.Result, error)
}

// Stages bundles the four pipeline stages driven by the Manager.
type Stages struct {
	Collector ArticleCollector
	Writer    ScriptWriter
	Narrator  Narrator
	Assembler EpisodeAssembler
}

func (s Stages) validate() error {
	switch {
	case s.Collector == nil:
		return errors.New("workflow: collector stage is required")
	case s.Writer == nil:
		return errors.New("workflow: script stage is required")
	case s.Narrator == nil:
		return errors.New("workflow: narration stage is required")
	case s.Assembler == nil:
		return errors.New("workflow: assembly stage is required")
	}
	return nil
}

// segmentJob carries everything a worker needs; workers never see the
// mutable episode.
type segmentJob struct {
	topic     episode.TopicSpec
	plan      script.SegmentPlan
	audioPath string
	workDir   string
}

// segmentEvent is a transition reported by a worker to the episode's run loop.
type segmentEvent struct {
	index  int
	to     episode.SegmentStatus
	script *script.Script
	result *narration.Result
	err    error
	at     time.Time
}

// run tracks one in-flight episode.
type run struct {
	requestID string
	number    int
	cancel    context.CancelFunc
	done      chan struct{}

	mu       sync.RWMutex
	snapshot episode.Episode
}

func (r *run) publish(ep *episode.Episode) {
	snap := ep.Snapshot()
	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()
}

func (r *run) current() episode.Episode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.snapshot
	// Callers get their own copy.
	return (&out).Snapshot()
}

package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"newscast/internal/assembly"
	"newscast/internal/episode"
	"newscast/internal/logging"
	"newscast/internal/script"
	"newscast/internal/services"
)

const (
	reasonCancelled   = "cancelled"
	defaultAssemblyTO = 120 * time.Second
)

// execute is the episode's run loop. It is the only code that mutates ep.
func (m *Manager) execute(ctx context.Context, r *run, ep *episode.Episode) {
	defer close(r.done)
	defer m.forget(r)
	defer r.cancel()

	ctx = services.WithRequestID(ctx, ep.RequestID)
	ctx = services.WithEpisodeID(ctx, ep.EpisodeID)
	logger := logging.WithContext(ctx, m.logger)

	m.logTransition(logger, ep, "", episode.StatusRunning)
	m.notifyStarted(ctx, ep)

	articles, err := m.collect(ctx, ep)
	if err != nil {
		m.fail(ctx, logger, r, ep, err)
		return
	}
	ep.Articles = articles

	plans, err := script.Plan(articles, len(ep.Segments))
	if err != nil {
		m.fail(ctx, logger, r, ep, err)
		return
	}
	for i, plan := range plans {
		seg := &ep.Segments[i]
		seg.Title = plan.Title
		seg.Recap = plan.Recap
		seg.SourceArticleIDs = plan.ArticleIDs()
	}
	ep.Touch(m.now())
	for _, seg := range ep.Segments {
		m.persistSegment(logger, ep, seg)
	}
	m.persist(ctx, logger, r, ep)

	m.runSegments(ctx, logger, r, ep, plans)
	m.finish(ctx, logger, r, ep)
}

func (m *Manager) collect(ctx context.Context, ep *episode.Episode) ([]episode.Article, error) {
	ctx = services.WithStage(ctx, "collector")
	logger := logging.ForStage(logging.WithContext(ctx, m.logger), m.cfg.Logging.StageOverrides, "collector")
	start := time.Now()

	limit := m.cfg.Episode.MaxArticles
	if limit <= 0 {
		limit = len(ep.Segments) * script.MaxArticlesPerSegment
	}
	articles, err := m.stages.Collector.Collect(ctx, ep.Topic, limit)
	if err != nil {
		return nil, err
	}
	logger.Info("collection finished",
		logging.Event("collection_finished"),
		logging.Int("articles", len(articles)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return articles, nil
}

// runSegments fans segments out to a bounded worker pool and applies their
// transition events in arrival order until every worker has returned.
func (m *Manager) runSegments(ctx context.Context, logger *slog.Logger, r *run, ep *episode.Episode, plans []script.SegmentPlan) {
	workers := m.cfg.Episode.WorkerCount
	if workers < 1 {
		workers = 1
	}
	layout := m.store.Layout()
	events := make(chan segmentEvent)

	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, plan := range plans {
			if ctx.Err() != nil {
				break
			}
			job := segmentJob{
				topic:     ep.Topic,
				plan:      plan,
				audioPath: layout.SegmentAudioPath(ep.Number, plan.Index),
				workDir:   layout.WorkDir(ep.Number),
			}
			g.Go(func() error {
				m.runSegment(ctx, job, events)
				return nil
			})
		}
		_ = g.Wait()
		close(events)
	}()

	for ev := range events {
		m.apply(ctx, logger, r, ep, ev)
	}
}

func (m *Manager) apply(ctx context.Context, logger *slog.Logger, r *run, ep *episode.Episode, ev segmentEvent) {
	seg, err := ep.Segment(ev.index)
	if err != nil {
		logger.Warn("event for unknown segment", logging.Error(err))
		return
	}
	segLogger := logger.With(logging.SegmentIndex(seg.Index))
	if err := seg.Advance(ev.to, ev.at); err != nil {
		logging.WarnWithContext(segLogger, "segment transition rejected", "segment_transition_rejected",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "worker reported an out-of-order transition"),
		)
		return
	}

	switch ev.to {
	case episode.SegmentScripting:
		segLogger.Info("segment started",
			logging.Event("segment_start"),
			logging.String("title", seg.Title),
			logging.Int("articles", len(seg.SourceArticleIDs)),
		)
	case episode.SegmentNarrating:
		if ev.script != nil {
			seg.ScriptText = ev.script.Text
			seg.ScriptSource = ev.script.Source
			if ev.script.Title != "" {
				seg.Title = ev.script.Title
			}
		}
		segLogger.Debug("segment scripted",
			logging.String("script_source", string(seg.ScriptSource)),
			logging.Int("words", wordCount(seg.ScriptText)),
		)
	case episode.SegmentDone:
		if ev.result != nil {
			seg.AudioPath = ev.result.AudioPath
			seg.DurationMillis = ev.result.Duration.Round(time.Millisecond).Milliseconds()
		}
		segLogger.Info("segment complete",
			logging.Event("segment_complete"),
			logging.Duration("audio", seg.Duration()),
			logging.String("script_source", string(seg.ScriptSource)),
		)
	case episode.SegmentFailed:
		seg.Error = failureReason(ev.err)
		if errors.Is(ev.err, context.Canceled) {
			segLogger.Info("segment cancelled",
				logging.Event("segment_failed"),
				logging.String("reason", seg.Error),
			)
			break
		}
		logging.WarnWithContext(segLogger, "segment failed", "segment_failed",
			logging.Error(ev.err),
			logging.String(logging.FieldErrorKind, services.Kind(ev.err)),
			logging.String(logging.FieldErrorHint, services.Details(ev.err).Hint),
			logging.String(logging.FieldImpact, "segment becomes a gap in the episode"),
		)
	}

	ep.Touch(ev.at)
	m.persistSegment(logger, ep, *seg)
	m.persist(ctx, logger, r, ep)
}

// finish settles unfinished segments, assembles whatever succeeded, and
// writes the terminal state exactly once.
func (m *Manager) finish(ctx context.Context, logger *slog.Logger, r *run, ep *episode.Episode) {
	cancelled := ctx.Err() != nil
	now := m.now()
	unfinished := ep.Unfinished()
	for _, index := range unfinished {
		seg, _ := ep.Segment(index)
		if err := seg.Abandon(reasonCancelled, now); err != nil {
			continue
		}
		m.persistSegment(logger, ep, *seg)
	}
	if len(unfinished) > 0 {
		ep.Touch(now)
		m.persist(ctx, logger, r, ep)
	}

	done, _, total := ep.Counts()
	if done == 0 {
		reason := "no segments completed"
		kind := services.Kind(services.ErrExternalTool)
		if cancelled {
			reason, kind = reasonCancelled, "cancelled"
		}
		m.terminate(ctx, logger, r, ep, episode.StatusFailed, reason, kind)
		return
	}

	timeout := time.Duration(m.cfg.Episode.AssemblyTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultAssemblyTO
	}
	asmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	asmCtx = services.WithStage(asmCtx, "assembly")

	result, err := m.stages.Assembler.Assemble(asmCtx, assembly.Input{
		Segments:   clips(ep),
		OutputPath: m.store.Layout().CompleteAudioPath(ep.Number),
		WorkDir:    m.store.Layout().WorkDir(ep.Number),
	})
	if err != nil {
		logging.ErrorWithContext(logger, "episode assembly failed", "assembly_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, services.Details(err).Hint),
		)
		m.terminate(ctx, logger, r, ep, episode.StatusFailed, failureReason(err), services.Kind(err))
		return
	}

	info := result.Info
	ep.Assembly = &info
	ep.CompleteAudioPath = result.AudioPath
	status := episode.StatusComplete
	reason := ""
	kind := ""
	if done < total {
		status = episode.StatusPartial
		if cancelled {
			reason, kind = reasonCancelled, "cancelled"
		}
	}
	m.terminate(ctx, logger, r, ep, status, reason, kind)
}

func (m *Manager) fail(ctx context.Context, logger *slog.Logger, r *run, ep *episode.Episode, err error) {
	kind := services.Kind(err)
	logging.ErrorWithContext(logger, "episode failed", "episode_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, kind),
		logging.String(logging.FieldErrorHint, services.Details(err).Hint),
	)
	m.terminate(ctx, logger, r, ep, episode.StatusFailed, failureReason(err), kind)
}

func (m *Manager) terminate(ctx context.Context, logger *slog.Logger, r *run, ep *episode.Episode, status episode.Status, reason, kind string) {
	from := ep.Status
	if err := ep.Finish(status, reason, kind, m.now()); err != nil {
		logger.Warn("terminal state already written", logging.Error(err))
		return
	}
	m.persist(ctx, logger, r, ep)
	m.logTransition(logger, ep, from, status)
	m.notifyTerminal(ctx, ep)
}

func clips(ep *episode.Episode) []assembly.Clip {
	out := make([]assembly.Clip, 0, len(ep.Segments))
	for _, seg := range ep.Segments {
		out = append(out, assembly.Clip{
			Index:      seg.Index,
			Title:      seg.Title,
			AudioPath:  seg.AudioPath,
			Duration:   seg.Duration(),
			ArticleIDs: append([]string(nil), seg.SourceArticleIDs...),
			Done:       seg.Status == episode.SegmentDone,
		})
	}
	return out
}

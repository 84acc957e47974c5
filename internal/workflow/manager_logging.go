package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"newscast/internal/episode"
	"newscast/internal/logging"
	"newscast/internal/services"
)

// persist writes episode_info.json and the catalog row, then publishes the
// new snapshot. Writes outlive cancellation of ctx.
func (m *Manager) persist(ctx context.Context, logger *slog.Logger, r *run, ep *episode.Episode) {
	writeCtx := context.WithoutCancel(ctx)
	if err := m.store.Save(ep); err != nil {
		logging.ErrorWithContext(logger, "failed to persist episode info", "episode_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on episodes_dir"),
			logging.String(logging.FieldImpact, "episode_info.json may be stale"),
		)
	}
	if err := m.catalog.Upsert(writeCtx, ep.Snapshot()); err != nil {
		logging.WarnWithContext(logger, "failed to index episode", "catalog_upsert_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir; the catalog is rebuilt at startup"),
			logging.String(logging.FieldImpact, "list output may lag"),
		)
	}
	r.publish(ep)
}

func (m *Manager) persistSegment(logger *slog.Logger, ep *episode.Episode, seg episode.Segment) {
	if err := m.store.SaveSegment(ep, seg, m.now()); err != nil {
		logging.WarnWithContext(logger, "failed to write segment metadata", "segment_persist_failed",
			logging.SegmentIndex(seg.Index),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on episodes_dir"),
		)
	}
}

func (m *Manager) logTransition(logger *slog.Logger, ep *episode.Episode, from, to episode.Status) {
	done, failed, total := ep.Counts()
	attrs := []logging.Attr{
		logging.Event("episode_transition"),
		logging.String("from", string(from)),
		logging.String("to", string(to)),
		logging.String("topic", ep.Topic.String()),
		logging.Int("segments_done", done),
		logging.Int("segments_failed", failed),
		logging.Int("segments_total", total),
	}
	if ep.Error != "" {
		attrs = append(attrs, logging.String("reason", ep.Error))
	}
	if ep.Assembly != nil {
		attrs = append(attrs, logging.Int64("total_ms", ep.Assembly.TotalMillis))
	}
	level := slog.LevelInfo
	if to == episode.StatusFailed {
		level = slog.LevelWarn
		attrs = append(attrs, logging.Alert("episode_failed"))
	}
	logger.Log(context.Background(), level, "episode transition", logging.Args(attrs...)...)
}

// failureReason is the human-readable error recorded on segments and episodes.
func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return reasonCancelled
	}
	message := strings.TrimSpace(services.Details(err).Message)
	if message == "" {
		message = "failed without error detail"
	}
	return message
}

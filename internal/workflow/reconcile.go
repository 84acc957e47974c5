package workflow

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/gofrs/flock"

	"newscast/internal/episode"
	"newscast/internal/logging"
)

const reasonInterrupted = "interrupted"

// Reconcile seals episodes left running by a process that is gone and
// re-indexes every episode on disk into the catalog, including episodes
// still running in another process. An episode counts as orphaned when
// nobody holds its run lock. It returns the number of
// episodes sealed.
func (m *Manager) Reconcile(ctx context.Context) (int, error) {
	logger := logging.WithContext(ctx, m.logger)
	numbers, err := m.store.Numbers()
	if err != nil {
		return 0, err
	}
	layout := m.store.Layout()

	sealed := 0
	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			return sealed, err
		}
		ep, err := m.store.Load(number)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			logging.WarnWithContext(logger, "unreadable episode info", "reconcile_skipped",
				logging.EpisodeID(episode.EpisodeID(number)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect or remove the episode directory"),
				logging.String(logging.FieldImpact, "episode is not listed"),
			)
			continue
		}
		if ep.Status == episode.StatusRunning {
			if _, ok := m.active(ep.RequestID); ok {
				// The run loop indexes its own episode on every transition.
				continue
			}
			if sealedEp, ok := m.sealOrphan(logger, layout, number); ok {
				ep = sealedEp
				sealed++
			}
		}
		if err := m.catalog.Upsert(ctx, ep.Snapshot()); err != nil {
			return sealed, err
		}
	}

	rows, err := m.catalog.Running(ctx)
	if err != nil {
		return sealed, err
	}
	for _, rec := range rows {
		if _, err := m.store.Load(rec.Number); err == nil {
			continue
		}
		if err := m.catalog.MarkInterrupted(ctx, rec.RequestID, reasonInterrupted, m.now()); err != nil {
			return sealed, err
		}
		sealed++
	}
	return sealed, nil
}

// sealOrphan marks a running episode interrupted when no process holds its
// run lock. It reports false when the episode is still owned elsewhere or
// sealing failed.
func (m *Manager) sealOrphan(logger *slog.Logger, layout episode.Layout, number int) (*episode.Episode, bool) {
	lock := flock.New(layout.RunLockPath(number))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		return nil, false
	}
	defer func() { _ = lock.Unlock() }()

	ep, err := m.store.Seal(number, reasonInterrupted, m.now())
	if err != nil {
		logging.WarnWithContext(logger, "failed to seal interrupted episode", "reconcile_seal_failed",
			logging.EpisodeID(episode.EpisodeID(number)),
			logging.Error(err),
		)
		return nil, false
	}
	logger.Info("interrupted episode sealed",
		logging.Event("episode_transition"),
		logging.EpisodeID(ep.EpisodeID),
		logging.String("from", string(episode.StatusRunning)),
		logging.String("to", string(ep.Status)),
		logging.String("reason", reasonInterrupted),
	)
	return ep, true
}

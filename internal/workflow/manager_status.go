package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"newscast/internal/catalog"
	"newscast/internal/episode"
	"newscast/internal/services"
)

// Status returns a snapshot of the episode created for requestID.
func (m *Manager) Status(ctx context.Context, requestID string) (episode.Episode, error) {
	requestID = strings.TrimSpace(requestID)
	if r, ok := m.active(requestID); ok {
		return r.current(), nil
	}
	rec, err := m.catalog.Get(ctx, requestID)
	if err != nil {
		return episode.Episode{}, err
	}
	if rec == nil {
		return episode.Episode{}, notFound(requestID, "unknown request id")
	}
	ep, err := m.store.Load(rec.Number)
	if errors.Is(err, fs.ErrNotExist) {
		return episode.Episode{}, notFound(requestID, rec.EpisodeID+" has no episode_info.json")
	}
	if err != nil {
		return episode.Episode{}, err
	}
	return ep.Snapshot(), nil
}

// Artifact returns the path of the assembled audio for requestID. Only
// complete and partial episodes have one.
func (m *Manager) Artifact(ctx context.Context, requestID string) (string, error) {
	ep, err := m.Status(ctx, requestID)
	if err != nil {
		return "", err
	}
	if ep.Status != episode.StatusComplete && ep.Status != episode.StatusPartial {
		return "", notFound(requestID, fmt.Sprintf("%s is %s", ep.EpisodeID, ep.Status))
	}
	if ep.CompleteAudioPath == "" {
		return "", notFound(requestID, ep.EpisodeID+" has no assembled audio")
	}
	if _, err := os.Stat(ep.CompleteAudioPath); err != nil {
		return "", notFound(requestID, err.Error())
	}
	return ep.CompleteAudioPath, nil
}

// Wait blocks until the episode reaches a terminal state or ctx is done, and
// returns the latest snapshot.
func (m *Manager) Wait(ctx context.Context, requestID string) (episode.Episode, error) {
	if r, ok := m.active(requestID); ok {
		select {
		case <-r.done:
		case <-ctx.Done():
			return r.current(), ctx.Err()
		}
	}
	return m.Status(ctx, requestID)
}

// List returns catalog records newest first.
func (m *Manager) List(ctx context.Context, filter catalog.Filter) ([]catalog.Record, error) {
	return m.catalog.List(ctx, filter)
}

func notFound(requestID, detail string) error {
	return fmt.Errorf("%w: %w", ErrNotFound,
		services.Wrap(services.ErrNotFound, "workflow", "lookup", fmt.Sprintf("request %s", requestID), errors.New(detail)))
}

package workflow

import (
	"context"
	"errors"
	"time"

	"newscast/internal/episode"
	"newscast/internal/logging"
	"newscast/internal/notifications"
)

func (m *Manager) notifyStarted(ctx context.Context, ep *episode.Episode) {
	m.publish(ctx, notifications.EventEpisodeStarted, notifications.Payload{
		"episodeID": ep.EpisodeID,
		"topic":     ep.Topic.String(),
		"segments":  len(ep.Segments),
	})
}

func (m *Manager) notifyTerminal(ctx context.Context, ep *episode.Episode) {
	done, _, total := ep.Counts()
	payload := notifications.Payload{
		"episodeID": ep.EpisodeID,
		"topic":     ep.Topic.String(),
		"segments":  total,
		"done":      done,
	}
	if ep.Assembly != nil {
		payload["duration"] = (time.Duration(ep.Assembly.TotalMillis) * time.Millisecond).Round(time.Second)
	}
	event := notifications.EventEpisodeComplete
	switch ep.Status {
	case episode.StatusPartial:
		event = notifications.EventEpisodePartial
	case episode.StatusFailed:
		event = notifications.EventEpisodeFailed
		payload["error"] = ep.Error
	}
	m.publish(ctx, event, payload)
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logger := logging.WithContext(ctx, m.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not send notification", logging.String("event", string(event)))
			return
		}
		logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

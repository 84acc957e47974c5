package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newscast/internal/config"
)

const userAgent = "newscast/0.1"

// Event names a workflow milestone.
type Event string

const (
	EventEpisodeStarted  Event = "episode_started"
	EventEpisodeComplete Event = "episode_complete"
	EventEpisodePartial  Event = "episode_partial"
	EventEpisodeFailed   Event = "episode_failed"
	EventTest            Event = "test"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventEpisodeStarted:  cfg.Notifications.Started,
			EventEpisodeComplete: cfg.Notifications.Completed,
			EventEpisodePartial:  cfg.Notifications.Completed,
			EventEpisodeFailed:   cfg.Notifications.Failed,
			EventTest:            true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, p Payload) (message, bool) {
	topic := p.str("topic")
	episode := p.str("episodeID")
	switch event {
	case EventEpisodeStarted:
		return message{
			title: "newscast - Episode Started",
			body:  fmt.Sprintf("🎙️ Generating %s: %s (%s segments)", episode, topic, p.str("segments")),
			tags:  []string{"newscast", "episode", "started"},
		}, true
	case EventEpisodeComplete:
		return message{
			title: "newscast - Episode Ready",
			body:  fmt.Sprintf("✅ %s ready: %s (%s)", episode, topic, p.str("duration")),
			tags:  []string{"newscast", "episode", "completed"},
		}, true
	case EventEpisodePartial:
		return message{
			title: "newscast - Episode Ready (partial)",
			body:  fmt.Sprintf("⚠️ %s ready with gaps: %s (%s of %s segments)", episode, topic, p.str("done"), p.str("segments")),
			tags:  []string{"newscast", "episode", "partial"},
		}, true
	case EventEpisodeFailed:
		return message{
			title:    "newscast - Episode Failed",
			body:     fmt.Sprintf("❌ %s failed: %s: %s", episode, topic, p.str("error")),
			tags:     []string{"newscast", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "newscast - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"newscast", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

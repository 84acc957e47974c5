package episode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopicMode selects how the collector interprets a topic.
type TopicMode string

const (
	TopicCategory TopicMode = "category"
	TopicPrompt   TopicMode = "prompt"
)

// TopicSpec is the category tag or free-text description driving collection
// and script focus.
type TopicSpec struct {
	Mode  TopicMode `json:"mode"`
	Value string    `json:"value"`
}

// CategoryTopic builds a category-mode topic.
func CategoryTopic(category string) TopicSpec {
	return TopicSpec{Mode: TopicCategory, Value: strings.ToLower(strings.TrimSpace(category))}
}

// PromptTopic builds a free-text topic.
func PromptTopic(prompt string) TopicSpec {
	return TopicSpec{Mode: TopicPrompt, Value: strings.TrimSpace(prompt)}
}

// Validate reports malformed topics.
func (t TopicSpec) Validate() error {
	switch t.Mode {
	case TopicCategory, TopicPrompt:
	default:
		return fmt.Errorf("topic mode %q is not category or prompt", t.Mode)
	}
	if strings.TrimSpace(t.Value) == "" {
		return errors.New("topic value is empty")
	}
	return nil
}

func (t TopicSpec) String() string {
	return string(t.Mode) + ":" + t.Value
}

// Request is a caller's ask for one episode.
type Request struct {
	RequestID    string    `json:"request_id"`
	Topic        TopicSpec `json:"topic"`
	SegmentCount int       `json:"segment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRequest validates the topic and segment count and assigns a request id.
func NewRequest(topic TopicSpec, segments int, now time.Time) (Request, error) {
	if err := topic.Validate(); err != nil {
		return Request{}, err
	}
	if segments < 1 {
		return Request{}, fmt.Errorf("segment count must be at least 1, got %d", segments)
	}
	return Request{
		RequestID:    uuid.NewString(),
		Topic:        topic,
		SegmentCount: segments,
		CreatedAt:    now.UTC(),
	}, nil
}

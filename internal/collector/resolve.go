package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newscast/internal/feeds"
	"newscast/internal/services/llm"
)

const resolvePrompt = `You are a news categorization assistant. Based on the listener's request, decide which news categories they want.

Available categories: %s

Respond with JSON only, in the form {"topics": ["category", ...]}. Use only the available categories and list the best match first.`

// ResolveCategories asks the LLM which catalog categories fit a free-text
// prompt. Unknown categories in the reply are dropped.
func ResolveCategories(ctx context.Context, client Completer, catalog *feeds.Catalog, prompt string) ([]string, error) {
	names := catalog.CategoryNames()
	if len(names) == 0 {
		return nil, errors.New("catalog has no categories")
	}
	system := fmt.Sprintf(resolvePrompt, strings.Join(names, ", "))
	content, err := client.CompleteJSON(ctx, system, "I want news about: "+prompt)
	if err != nil {
		return nil, err
	}
	var reply struct {
		Topics []string `json:"topics"`
	}
	if err := llm.DecodeLLMJSON(content, &reply); err != nil {
		return nil, fmt.Errorf("decode topic reply: %w", err)
	}
	seen := make(map[string]struct{}, len(reply.Topics))
	var out []string
	for _, topic := range reply.Topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if _, dup := seen[topic]; dup || !catalog.HasCategory(topic) {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no known categories in reply %q", strings.TrimSpace(content))
	}
	return out, nil
}

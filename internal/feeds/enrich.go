package feeds

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"newscast/internal/services"
)

// Enricher downloads an article page and extracts its main text.
type Enricher struct {
	fetch fetcher
}

// NewEnricher returns an Enricher using client and userAgent.
func NewEnricher(client *http.Client, userAgent string) *Enricher {
	if client == nil {
		client = &http.Client{}
	}
	return &Enricher{fetch: fetcher{client: client, userAgent: userAgent}}
}

// FullText returns the readable body of the page at link.
func (e *Enricher) FullText(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil || pageURL.Host == "" {
		return "", services.Wrap(services.ErrValidation, "collector", "enrich", "invalid article url", err)
	}
	body, err := e.fetch.get(ctx, "enrich", link)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "collector", "enrich", "extract text", err)
	}
	text := strings.TrimSpace(collapseParagraphs(article.TextContent))
	if text == "" {
		return "", services.Wrap(services.ErrNotFound, "collector", "enrich", "no readable text", nil)
	}
	return text, nil
}

func collapseParagraphs(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

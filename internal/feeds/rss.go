package feeds

import (
	"bytes"
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	"newscast/internal/services"
)

// RSS reads an RSS or Atom feed.
type RSS struct {
	spec  SourceSpec
	fetch fetcher
	limit int
}

// newRSS builds a feed source. limit <= 0 keeps every entry.
func newRSS(spec SourceSpec, f fetcher, limit int) *RSS {
	return &RSS{spec: spec, fetch: f, limit: limit}
}

func (r *RSS) Name() string { return r.spec.Name }

// Fetch downloads and parses the feed, returning at most q.Limit entries.
func (r *RSS) Fetch(ctx context.Context, q Query) ([]Item, error) {
	body, err := r.fetch.get(ctx, r.spec.Name, r.spec.URL)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "collector", r.spec.Name, "parse feed", err)
	}
	limit := pickLimit(q.Limit, r.limit)
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		title := StripHTML(entry.Title)
		if title == "" {
			continue
		}
		summary := StripHTML(entry.Description)
		if summary == "" {
			summary = StripHTML(entry.Content)
		}
		items = append(items, Item{
			Title:       title,
			Summary:     summary,
			Link:        entry.Link,
			PublishedAt: published(entry),
			Source:      r.spec.Name,
			Category:    r.spec.Category,
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func published(entry *gofeed.Item) time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}

func pickLimit(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

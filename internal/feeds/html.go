package feeds

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"newscast/internal/services"
	"newscast/internal/textutil"
)

const (
	minHTMLTitleChars = 10
	maxHTMLTitleRunes = 160
)

// HTML scrapes headline blocks from a page using a CSS selector.
type HTML struct {
	spec  SourceSpec
	fetch fetcher
	limit int
	now   func() time.Time
}

// newHTML builds a selector-driven page source.
func newHTML(spec SourceSpec, f fetcher, limit int, now func() time.Time) *HTML {
	if now == nil {
		now = time.Now
	}
	return &HTML{spec: spec, fetch: f, limit: limit, now: now}
}

func (h *HTML) Name() string { return h.spec.Name }

// Fetch returns one item per selected element. Pages carry no publication
// time, so items are stamped with the fetch time.
func (h *HTML) Fetch(ctx context.Context, q Query) ([]Item, error) {
	body, err := h.fetch.get(ctx, h.spec.Name, h.spec.URL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "collector", h.spec.Name, "parse page", err)
	}
	base, _ := url.Parse(h.spec.URL)
	fetchedAt := h.now().UTC()
	limit := pickLimit(q.Limit, h.limit)

	var items []Item
	doc.Find(h.spec.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := collapse(sel.Text())
		if len(text) <= minHTMLTitleChars {
			return true
		}
		items = append(items, Item{
			Title:       headline(text),
			Summary:     text,
			Link:        firstLink(sel, base),
			PublishedAt: fetchedAt,
			Source:      h.spec.Name,
			Category:    h.spec.Category,
		})
		return limit <= 0 || len(items) < limit
	})
	return items, nil
}

func headline(text string) string {
	if sentences := textutil.SplitSentences(text); len(sentences) > 0 {
		text = sentences[0]
	}
	if utf8.RuneCountInString(text) <= maxHTMLTitleRunes {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:maxHTMLTitleRunes])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// firstLink returns the first absolute http(s) link inside sel.
func firstLink(sel *goquery.Selection, base *url.URL) string {
	var link string
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || strings.HasPrefix(href, "#") {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return true
		}
		link = ref.String()
		return false
	})
	return link
}

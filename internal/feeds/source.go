package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newscast/internal/services"
	"newscast/internal/services/retry"
)

const maxBodyBytes = 8 << 20

// Item is one raw entry returned by a source before normalization.
type Item struct {
	Title       string
	Summary     string
	Link        string
	PublishedAt time.Time
	Source      string
	// Category is the source's default category, empty when it has none.
	Category string
}

// Query bounds a single fetch.
type Query struct {
	Limit int
}

// Source is one upstream news provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]Item, error)
}

// Options configures the sources produced by Build.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	Limit      int
	Now        func() time.Time
}

// Build instantiates every source in the catalog.
func Build(catalog *Catalog, opts Options) ([]Source, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sources := make([]Source, 0, len(catalog.Sources))
	for _, spec := range catalog.Sources {
		limit := opts.Limit
		if spec.Limit > 0 {
			limit = spec.Limit
		}
		base := fetcher{client: opts.HTTPClient, userAgent: opts.UserAgent}
		switch spec.Kind {
		case KindRSS:
			sources = append(sources, newRSS(spec, base, limit))
		case KindHTML:
			sources = append(sources, newHTML(spec, base, limit, opts.Now))
		default:
			return nil, fmt.Errorf("source %q: unknown kind %q", spec.Name, spec.Kind)
		}
	}
	return sources, nil
}

type fetcher struct {
	client    *http.Client
	userAgent string
}

func (f fetcher) get(ctx context.Context, source, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "collector", source, "build request", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "collector", source, "fetch", err)
		}
		return nil, services.Wrap(services.ErrTransient, "collector", source, "fetch", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "collector", source, "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrExternalTool, "collector", source, "fetch", retry.NewStatusError(source, resp, truncate(body, 200)))
	}
	return body, nil
}

func truncate(body []byte, n int) []byte {
	if len(body) > n {
		return body[:n]
	}
	return body
}

// StripHTML returns the visible text of an HTML fragment with whitespace
// collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

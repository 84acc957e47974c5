package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"newscast/internal/config"
	"newscast/internal/episode"
	"newscast/internal/feeds"
	"newscast/internal/logging"
	"newscast/internal/services"
	"newscast/internal/stage"
)

// ErrCollection marks a collection that produced no usable articles.
var ErrCollection = errors.New("collection failed")

const enrichConcurrency = 4

// Enricher fetches the full text behind an article link.
type Enricher interface {
	FullText(ctx context.Context, link string) (string, error)
}

// Completer is the slice of the LLM client used to resolve free-text topics.
type Completer interface {
	Configured() bool
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Collector gathers, deduplicates, and ranks articles for a topic.
type Collector struct {
	cfg      config.Collector
	catalog  *feeds.Catalog
	sources  []feeds.Source
	enricher Enricher
	llm      Completer
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Collector.
type Option func(*Collector)

// WithEnricher overrides the full-text enricher.
func WithEnricher(e Enricher) Option {
	return func(c *Collector) { c.enricher = e }
}

// WithCompleter enables LLM topic resolution for prompt-mode topics.
func WithCompleter(llm Completer) Option {
	return func(c *Collector) { c.llm = llm }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

// WithClock overrides the time source used for recency scoring.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a collector over explicit sources.
func New(cfg config.Collector, catalog *feeds.Catalog, sources []feeds.Source, opts ...Option) *Collector {
	c := &Collector{
		cfg:     cfg,
		catalog: catalog,
		sources: sources,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "collector")
	return c
}

// NewFromConfig loads the feed catalog and builds every source it lists.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Collector, error) {
	catalog, err := feeds.LoadCatalog(cfg.Collector)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "collector", "load catalog", "invalid feed catalog", err)
	}
	client := &http.Client{}
	sources, err := feeds.Build(catalog, feeds.Options{
		HTTPClient: client,
		UserAgent:  cfg.Collector.UserAgent,
		Limit:      cfg.Collector.PerSourceLimit,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "collector", "build sources", "invalid feed catalog", err)
	}
	if cfg.Collector.EnrichFullText {
		opts = append([]Option{WithEnricher(feeds.NewEnricher(client, cfg.Collector.UserAgent))}, opts...)
	}
	return New(cfg.Collector, catalog, sources, opts...), nil
}

// Catalog exposes the feed catalog backing the collector.
func (c *Collector) Catalog() *feeds.Catalog {
	return c.catalog
}

// Collect queries every source concurrently and returns at most maxArticles
// ranked, deduplicated articles for topic. A failing source is skipped; only
// an empty result is an error.
func (c *Collector) Collect(ctx context.Context, topic episode.TopicSpec, maxArticles int) ([]episode.Article, error) {
	if err := topic.Validate(); err != nil {
		return nil, collectionError(services.ErrValidation, "invalid topic", err)
	}
	if maxArticles < 1 {
		return nil, collectionError(services.ErrValidation, fmt.Sprintf("max articles must be positive, got %d", maxArticles), nil)
	}
	if topic.Mode == episode.TopicCategory && !c.catalog.HasCategory(topic.Value) {
		return nil, collectionError(services.ErrValidation, fmt.Sprintf("unknown category %q", topic.Value), nil)
	}
	logger := logging.WithContext(ctx, c.logger)

	items, failed := c.fetchAll(ctx, logger)
	if err := ctx.Err(); err != nil {
		return nil, collectionError(services.ErrTimeout, "collection cancelled", err)
	}
	articles := c.normalize(items)
	unique := Dedup(articles, c.cfg.DedupThreshold)

	wanted := c.wantedCategories(ctx, logger, topic)
	if topic.Mode == episode.TopicCategory {
		unique = filterCategory(unique, topic.Value)
	}
	ranked := Rank(unique, RankInput{
		Topic:      topic,
		Categories: wanted,
		Now:        c.now(),
		HalfLife:   time.Duration(c.cfg.RecencyHalfLifeHours * float64(time.Hour)),
	})
	if len(ranked) > maxArticles {
		ranked = ranked[:maxArticles]
	}

	if len(ranked) == 0 {
		if failed == len(c.sources) {
			return nil, collectionError(services.ErrExternalTool, "every source failed", nil)
		}
		return nil, collectionError(services.ErrNotFound, fmt.Sprintf("no articles for %s", topic), nil)
	}

	c.enrich(ctx, logger, ranked)

	logger.Info("articles collected",
		logging.Event("collection_complete"),
		logging.Int("raw", len(items)),
		logging.Int("unique", len(unique)),
		logging.Int("selected", len(ranked)),
		logging.Int("failed_sources", failed),
		logging.Strings("categories", wanted),
	)
	return ranked, nil
}

type fetchResult struct {
	items []feeds.Item
	err   error
	took  time.Duration
}

func (c *Collector) fetchAll(ctx context.Context, logger *slog.Logger) ([]feeds.Item, int) {
	results := make([]fetchResult, len(c.sources))
	timeout := time.Duration(c.cfg.SourceTimeoutSeconds) * time.Second
	query := feeds.Query{Limit: c.cfg.PerSourceLimit}

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			fetchCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			start := time.Now()
			items, err := src.Fetch(fetchCtx, query)
			results[i] = fetchResult{items: items, err: err, took: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	var all []feeds.Item
	failed := 0
	for i, res := range results {
		name := c.sources[i].Name()
		if res.err != nil {
			failed++
			logging.WarnWithContext(logger, "source fetch failed", "source_failed",
				logging.String("source", name),
				logging.Duration("elapsed", res.took),
				logging.Error(res.err),
				logging.String(logging.FieldErrorKind, services.Kind(res.err)),
				logging.String(logging.FieldErrorHint, "source skipped for this episode"),
				logging.String(logging.FieldImpact, "fewer candidate articles"),
			)
			continue
		}
		logger.Debug("source fetched",
			logging.String("source", name),
			logging.Int("items", len(res.items)),
			logging.Duration("elapsed", res.took),
		)
		all = append(all, res.items...)
	}
	return all, failed
}

func (c *Collector) normalize(items []feeds.Item) []episode.Article {
	articles := make([]episode.Article, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		summary := strings.TrimSpace(item.Summary)
		articles = append(articles, episode.Article{
			ID:          episode.ArticleID(item.Link, item.Source, title),
			Title:       title,
			Summary:     summary,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
			URL:         item.Link,
			Category:    c.catalog.Categorize(title, summary, item.Category),
		})
	}
	return articles
}

func (c *Collector) wantedCategories(ctx context.Context, logger *slog.Logger, topic episode.TopicSpec) []string {
	if topic.Mode == episode.TopicCategory {
		return []string{topic.Value}
	}
	if c.llm == nil || !c.llm.Configured() {
		return nil
	}
	categories, err := ResolveCategories(ctx, c.llm, c.catalog, topic.Value)
	if err != nil {
		logging.WarnWithContext(logger, "topic resolution failed", "topic_resolution_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ranking falls back to keyword relevance"),
			logging.String(logging.FieldImpact, "category bonus disabled"),
		)
		return nil
	}
	logger.Debug("prompt resolved", logging.String("prompt", topic.Value), logging.Strings("categories", categories))
	return categories
}

func (c *Collector) enrich(ctx context.Context, logger *slog.Logger, articles []episode.Article) {
	if c.enricher == nil || !c.cfg.EnrichFullText {
		return
	}
	limit := c.cfg.EnrichLimit
	if limit <= 0 || limit > len(articles) {
		limit = len(articles)
	}
	timeout := time.Duration(c.cfg.SourceTimeoutSeconds) * time.Second

	var g errgroup.Group
	g.SetLimit(enrichConcurrency)
	for i := range articles[:limit] {
		if articles[i].URL == "" {
			continue
		}
		g.Go(func() error {
			fetchCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			text, err := c.enricher.FullText(fetchCtx, articles[i].URL)
			if err != nil {
				logger.Debug("enrichment skipped", logging.String("url", articles[i].URL), logging.Error(err))
				return nil
			}
			articles[i].Body = text
			return nil
		})
	}
	_ = g.Wait()
}

// HealthCheck reports whether the collector has sources to query.
func (c *Collector) HealthCheck(context.Context) stage.Health {
	const name = "collector"
	if c.catalog == nil || len(c.sources) == 0 {
		return stage.Unhealthy(name, "no sources configured")
	}
	return stage.Healthy(name)
}

func filterCategory(articles []episode.Article, category string) []episode.Article {
	kept := articles[:0:0]
	for _, a := range articles {
		if a.Category == category {
			kept = append(kept, a)
		}
	}
	return kept
}

func collectionError(marker error, message string, err error) error {
	return fmt.Errorf("%w: %w", ErrCollection, services.Wrap(marker, "collector", "collect", message, err))
}

// Package feeds fetches raw news items from upstream sources.
//
// A YAML catalog (embedded by default) names each source and its kind: rss
// feeds are parsed with gofeed, html pages are scraped with a CSS selector via
// goquery. The catalog also carries the keyword tables used to categorize
// articles. Enricher pulls full article text with go-readability.
package feeds

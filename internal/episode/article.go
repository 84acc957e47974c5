package episode

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"newscast/internal/textutil"
)

// Article is one collected news item. Articles are immutable once collected.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Body        string    `json:"body,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category"`
}

// Text returns the richest available prose for the article.
func (a Article) Text() string {
	if strings.TrimSpace(a.Body) != "" {
		return a.Body
	}
	return a.Summary
}

// ArticleID derives a stable identifier from the canonical URL, or from the
// source and normalized title when the article has no URL.
func ArticleID(rawURL, source, title string) string {
	key := CanonicalURL(rawURL)
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(source)) + "|" + textutil.NormalizeTitle(title)
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// CanonicalURL lowercases scheme and host, drops fragments and tracking
// parameters, and trims trailing slashes. Unparseable input returns "".
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || lower == "fbclid" || lower == "gclid" || lower == "ref" {
			q.Del(key)
		}
	}
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.Get(key)))
	}
	u.RawQuery = b.String()
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// ArticleRef is the compact article reference stored in segment metadata.
type ArticleRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}

// Ref returns the compact reference for a.
func (a Article) Ref() ArticleRef {
	return ArticleRef{ID: a.ID, Title: a.Title, Source: a.Source, URL: a.URL}
}

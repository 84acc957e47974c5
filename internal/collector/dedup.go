package collector

import (
	"sort"

	"newscast/internal/episode"
	"newscast/internal/textutil"
)

// minFuzzyTerms is the smallest vector compared for near duplicates; shorter
// texts only match on id or normalized title.
const minFuzzyTerms = 3

// Dedup drops repeated stories. Articles sharing an id or a normalized title
// are duplicates outright; otherwise two articles whose title and summary
// vectors reach threshold cosine similarity are treated as the same story.
// The most recently published copy is kept. Output is ordered newest first.
func Dedup(articles []episode.Article, threshold float64) []episode.Article {
	ordered := make([]episode.Article, len(articles))
	copy(ordered, articles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return newer(ordered[i], ordered[j])
	})

	seenIDs := make(map[string]struct{}, len(ordered))
	seenTitles := make(map[string]struct{}, len(ordered))
	kept := make([]episode.Article, 0, len(ordered))
	var vectors []*textutil.Vector
	for _, a := range ordered {
		if _, dup := seenIDs[a.ID]; dup {
			continue
		}
		title := textutil.NormalizeTitle(a.Title)
		if _, dup := seenTitles[title]; dup && title != "" {
			continue
		}
		vec := textutil.Vectorize(a.Title + " " + a.Summary)
		if threshold > 0 && nearDuplicate(vec, vectors, threshold) {
			continue
		}
		seenIDs[a.ID] = struct{}{}
		seenTitles[title] = struct{}{}
		if vec.Terms() >= minFuzzyTerms {
			vectors = append(vectors, vec)
		}
		kept = append(kept, a)
	}
	return kept
}

func nearDuplicate(vec *textutil.Vector, seen []*textutil.Vector, threshold float64) bool {
	if vec.Terms() < minFuzzyTerms {
		return false
	}
	for _, other := range seen {
		if vec.Cosine(other) >= threshold {
			return true
		}
	}
	return false
}

// newer orders by publication time descending, then URL and id ascending.
func newer(a, b episode.Article) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	if a.URL != b.URL {
		return a.URL < b.URL
	}
	return a.ID < b.ID
}

package script

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"newscast/internal/episode"
	"newscast/internal/services"
)

// MaxArticlesPerSegment bounds how many stories a segment covers.
const MaxArticlesPerSegment = 3

// SegmentPlan is the article assignment for one segment.
type SegmentPlan struct {
	Index    int
	Total    int
	Title    string
	Category string
	Articles []episode.Article
	// Recap marks a segment that revisits an article already covered because
	// fewer articles than segments were collected.
	Recap bool
}

// ArticleIDs returns the ids of the planned articles in order.
func (p SegmentPlan) ArticleIDs() []string {
	ids := make([]string, len(p.Articles))
	for i, a := range p.Articles {
		ids[i] = a.ID
	}
	return ids
}

var titleCaser = cases.Title(language.English)

// Plan partitions ranked articles into n segments indexed 1..n. Articles are
// grouped by category so each segment stays on one theme, and no segment
// covers more than MaxArticlesPerSegment stories. With fewer articles than
// segments, the surplus segments become recaps of earlier articles.
func Plan(articles []episode.Article, n int) ([]SegmentPlan, error) {
	if n < 1 {
		return nil, services.Wrap(services.ErrValidation, "script", "plan", fmt.Sprintf("segment count must be at least 1, got %d", n), nil)
	}
	if len(articles) == 0 {
		return nil, services.Wrap(services.ErrValidation, "script", "plan", "no articles to plan", nil)
	}

	if limit := n * MaxArticlesPerSegment; len(articles) > limit {
		articles = articles[:limit]
	}
	ordered := groupByCategory(articles)

	plans := make([]SegmentPlan, 0, n)
	if len(ordered) >= n {
		base, extra := len(ordered)/n, len(ordered)%n
		start := 0
		for i := 0; i < n; i++ {
			size := base
			if i < extra {
				size++
			}
			group := ordered[start : start+size]
			start += size
			plans = append(plans, newPlan(i+1, n, group, false))
		}
		return plans, nil
	}

	for i := 0; i < n; i++ {
		if i < len(ordered) {
			plans = append(plans, newPlan(i+1, n, ordered[i:i+1], false))
			continue
		}
		reuse := ordered[(i-len(ordered))%len(ordered)]
		plans = append(plans, newPlan(i+1, n, []episode.Article{reuse}, true))
	}
	return plans, nil
}

func newPlan(index, total int, group []episode.Article, recap bool) SegmentPlan {
	articles := make([]episode.Article, len(group))
	copy(articles, group)
	category := articles[0].Category
	if category == "" {
		category = "general"
	}
	title := titleCaser.String(category) + " Update"
	if recap {
		title = "Recap: " + strings.TrimSpace(articles[0].Title)
	}
	return SegmentPlan{
		Index:    index,
		Total:    total,
		Title:    title,
		Category: category,
		Articles: articles,
		Recap:    recap,
	}
}

// groupByCategory keeps categories in order of their best-ranked article and
// articles in rank order within each category.
func groupByCategory(articles []episode.Article) []episode.Article {
	var order []string
	groups := make(map[string][]episode.Article)
	for _, a := range articles {
		if _, ok := groups[a.Category]; !ok {
			order = append(order, a.Category)
		}
		groups[a.Category] = append(groups[a.Category], a)
	}
	out := make([]episode.Article, 0, len(articles))
	for _, category := range order {
		out = append(out, groups[category]...)
	}
	return out
}

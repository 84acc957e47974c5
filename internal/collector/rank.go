package collector

import (
	"math"
	"sort"
	"time"

	"newscast/internal/episode"
	"newscast/internal/textutil"
)

const (
	relevanceWeight  = 0.6
	recencyWeight    = 0.4
	categoryBonus    = 0.5
	defaultHalfLife  = 24 * time.Hour
	scoreEqualWithin = 1e-9
)

// RankInput carries what Rank needs besides the articles.
type RankInput struct {
	Topic episode.TopicSpec
	// Categories earn a relevance bonus for matching articles.
	Categories []string
	Now        time.Time
	HalfLife   time.Duration
}

// Scored pairs an article with its ranking components.
type Scored struct {
	Article   episode.Article
	Relevance float64
	Recency   float64
	Score     float64
}

// Rank orders articles by a blend of topic relevance and exponential recency
// decay. Ties fall back to recency, then URL.
func Rank(articles []episode.Article, in RankInput) []episode.Article {
	scored := Score(articles, in)
	out := make([]episode.Article, len(scored))
	for i, s := range scored {
		out[i] = s.Article
	}
	return out
}

// Score computes ranking components and returns them best first.
func Score(articles []episode.Article, in RankInput) []Scored {
	halfLife := in.HalfLife
	if halfLife <= 0 {
		halfLife = defaultHalfLife
	}
	wanted := make(map[string]struct{}, len(in.Categories))
	for _, c := range in.Categories {
		wanted[c] = struct{}{}
	}

	df := textutil.NewDocumentFrequency()
	vectors := make([]*textutil.Vector, len(articles))
	for i, a := range articles {
		vectors[i] = textutil.Vectorize(a.Title + " " + a.Summary)
		df.Observe(vectors[i])
	}
	idf := df.IDF()
	var topic *textutil.Vector
	if in.Topic.Mode == episode.TopicPrompt {
		topic = textutil.Vectorize(in.Topic.Value).Weighted(idf)
	}

	scored := make([]Scored, len(articles))
	for i, a := range articles {
		relevance := 0.0
		if topic != nil {
			relevance = topic.Cosine(vectors[i].Weighted(idf))
		}
		if _, ok := wanted[a.Category]; ok {
			relevance += categoryBonus
		}
		relevance = math.Min(relevance, 1)
		recency := decay(a.PublishedAt, in.Now, halfLife)
		scored[i] = Scored{
			Article:   a,
			Relevance: relevance,
			Recency:   recency,
			Score:     relevanceWeight*relevance + recencyWeight*recency,
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if math.Abs(scored[i].Score-scored[j].Score) > scoreEqualWithin {
			return scored[i].Score > scored[j].Score
		}
		return newer(scored[i].Article, scored[j].Article)
	})
	return scored
}

// decay is 1 for an article published now and halves every halfLife.
// Undated articles score 0; future dates are clamped to now.
func decay(published, now time.Time, halfLife time.Duration) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age.Hours()/halfLife.Hours())
}

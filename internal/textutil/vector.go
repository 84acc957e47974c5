package textutil

import (
	"math"
	"strings"
	"unicode"
)

const minTokenLen = 3

// Vector is a sparse term-weight vector over folded tokens with stop words
// removed. A nil *Vector is empty and similar to nothing.
type Vector struct {
	weights map[string]float64
	norm    float64
}

// Vectorize counts term frequencies in text. Text made only of stop words or
// short tokens yields nil.
func Vectorize(text string) *Vector {
	counts := make(map[string]float64)
	for _, token := range Tokenize(text) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		counts[token]++
	}
	return newVector(counts)
}

func newVector(weights map[string]float64) *Vector {
	var sum float64
	for term, w := range weights {
		if w == 0 {
			delete(weights, term)
			continue
		}
		sum += w * w
	}
	if len(weights) == 0 {
		return nil
	}
	return &Vector{weights: weights, norm: math.Sqrt(sum)}
}

// Tokenize splits folded text on anything that is not a letter or digit and
// drops tokens shorter than three bytes.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Terms returns the number of distinct terms.
func (v *Vector) Terms() int {
	if v == nil {
		return 0
	}
	return len(v.weights)
}

// Cosine returns the cosine similarity of v and other in [0, 1].
func (v *Vector) Cosine(other *Vector) float64 {
	if v == nil || other == nil {
		return 0
	}
	small, large := v.weights, other.weights
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small {
		dot += w * large[term]
	}
	return math.Min(dot/(v.norm*other.norm), 1)
}

// Weighted returns a copy of v with each term scaled by weights[term]. Terms
// missing from weights keep their frequency.
func (v *Vector) Weighted(weights map[string]float64) *Vector {
	if v == nil || len(weights) == 0 {
		return v
	}
	scaled := make(map[string]float64, len(v.weights))
	for term, w := range v.weights {
		if factor, ok := weights[term]; ok {
			w *= factor
		}
		scaled[term] = w
	}
	return newVector(scaled)
}

// DocumentFrequency counts how many observed documents contain each term.
type DocumentFrequency struct {
	docs int
	freq map[string]int
}

// NewDocumentFrequency returns an empty table.
func NewDocumentFrequency() *DocumentFrequency {
	return &DocumentFrequency{freq: make(map[string]int)}
}

// Observe records the distinct terms of one document. Nil vectors are ignored.
func (d *DocumentFrequency) Observe(v *Vector) {
	if v == nil {
		return
	}
	d.docs++
	for term := range v.weights {
		d.freq[term]++
	}
}

// IDF returns smoothed inverse document frequencies, 1 + ln((N+1)/(1+df)),
// or nil before any document is observed.
func (d *DocumentFrequency) IDF() map[string]float64 {
	if d.docs == 0 {
		return nil
	}
	n := float64(d.docs)
	idf := make(map[string]float64, len(d.freq))
	for term, df := range d.freq {
		idf[term] = 1 + math.Log((n+1)/(1+float64(df)))
	}
	return idf
}

package textutil

import (
	"math"
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello World", []string{"hello", "world"}},
		{"a to the quick fox", []string{"the", "quick", "fox"}},
		{"Mars rover's 2nd drill: success!", []string{"mars", "rover", "2nd", "drill", "success"}},
		{"Économie: taux d'intérêt", []string{"economie", "taux", "interet"}},
		{"", []string{}},
		{"a b c", []string{}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !slices.Equal(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestVectorizeDropsStopWordsAndShortTokens(t *testing.T) {
	for _, text := range []string{"", "a an it to", "the and with from that"} {
		if v := Vectorize(text); v != nil {
			t.Errorf("Vectorize(%q) = %d terms, want nil", text, v.Terms())
		}
	}
	v := Vectorize("launch launch window")
	if v.Terms() != 2 {
		t.Fatalf("Terms = %d, want 2", v.Terms())
	}
	if math.Abs(v.norm-math.Sqrt(5)) > 1e-9 {
		t.Fatalf("norm = %v, want sqrt(5)", v.norm)
	}
}

func TestCosine(t *testing.T) {
	rocket := Vectorize("rocket launch delayed by weather")
	tests := []struct {
		name     string
		a, b     *Vector
		min, max float64
	}{
		{"nil left", nil, rocket, 0, 0},
		{"nil right", rocket, nil, 0, 0},
		{"identical", rocket, Vectorize("Rocket launch delayed by weather!"), 0.9999, 1},
		{"disjoint", rocket, Vectorize("parliament approves pension reform"), 0, 0},
		{"partial", rocket, Vectorize("weather forecast for the weekend"), 0.01, 0.99},
	}
	for _, tt := range tests {
		got := tt.a.Cosine(tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("%s: Cosine = %v, want within [%v, %v]", tt.name, got, tt.min, tt.max)
		}
		if back := tt.b.Cosine(tt.a); math.Abs(back-got) > 1e-12 {
			t.Errorf("%s: Cosine not symmetric: %v vs %v", tt.name, got, back)
		}
	}
}

func TestCosineRewrittenHeadline(t *testing.T) {
	original := Vectorize("NASA delays Artemis crewed lunar landing to 2027 after heat shield review")
	rewrite := Vectorize("Artemis lunar landing delayed to 2027 after NASA heat shield review")
	unrelated := Vectorize("Central bank raises interest rates as inflation cools across Europe")

	if sim := original.Cosine(rewrite); sim < 0.8 {
		t.Errorf("rewritten headline similarity = %v, want >= 0.8", sim)
	}
	if sim := original.Cosine(unrelated); sim > 0.2 {
		t.Errorf("unrelated headline similarity = %v, want <= 0.2", sim)
	}
}

func TestIDFDownweightsCommonTerms(t *testing.T) {
	docs := []string{
		"markets rally technology stocks",
		"markets fall energy stocks",
		"markets steady bond yields",
	}
	df := NewDocumentFrequency()
	if df.IDF() != nil {
		t.Fatal("expected nil IDF before any document")
	}
	for _, d := range docs {
		df.Observe(Vectorize(d))
	}
	df.Observe(nil)
	idf := df.IDF()
	if idf["markets"] >= idf["technology"] {
		t.Fatalf("common term weight %v should be below rare term %v", idf["markets"], idf["technology"])
	}

	query := Vectorize("technology").Weighted(idf)
	tech := Vectorize(docs[0]).Weighted(idf)
	energy := Vectorize(docs[1]).Weighted(idf)
	if query.Cosine(tech) <= query.Cosine(energy) {
		t.Fatal("expected technology document to rank above energy document")
	}
}

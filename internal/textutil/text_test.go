package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Café Owners Rally — Downtown!", "cafe owners rally downtown"},
		{"  SpaceX   launches  Starship ", "spacex launches starship"},
		{"Ｆｕｌｌｗｉｄｔｈ Title", "fullwidth title"},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.a); got != tt.b {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.a, got, tt.b)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one.  Second one?\nThird \"quoted!\" Version 3.5 ships. tail")
	want := []string{"First one.", "Second one?", "Third \"quoted!\"", "Version 3.5 ships.", "tail"}
	if len(got) != len(want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if SplitSentences("   ") != nil {
		t.Fatal("expected nil for blank text")
	}
}

func TestLeadSentences(t *testing.T) {
	if got := LeadSentences("One. Two. Three.", 2); got != "One. Two." {
		t.Fatalf("LeadSentences = %q", got)
	}
	if got := LeadSentences("One.", 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestChunkRespectsLimitAndOrder(t *testing.T) {
	text := strings.Repeat("This sentence has exactly forty chars!! ", 10)
	chunks := Chunk(text, 100)
	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 100 {
			t.Fatalf("chunk %d exceeds limit: %d", i, utf8.RuneCountInString(c))
		}
	}
	if strings.Join(chunks, " ") != strings.TrimSpace(strings.Join(strings.Fields(text), " ")) {
		t.Fatal("chunks do not reassemble into the original text")
	}
}

func TestChunkSplitsOversizedSentenceAndWord(t *testing.T) {
	chunks := Chunk("short words then "+strings.Repeat("x", 25), 10)
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 10 {
			t.Fatalf("chunk %d exceeds limit: %q", i, c)
		}
	}
	if chunks[0] != "short" {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
}

func TestLooksEnglish(t *testing.T) {
	english := "The government said on Tuesday that it would review the plan and report back to the parliament."
	german := "Die Regierung erklärte am Dienstag, dass sie den Plan prüfen und dem Parlament berichten werde."
	if !LooksEnglish(english) {
		t.Fatalf("expected English, ratio=%v", EnglishRatio(english))
	}
	if LooksEnglish(german) {
		t.Fatalf("expected non-English, ratio=%v", EnglishRatio(german))
	}
}

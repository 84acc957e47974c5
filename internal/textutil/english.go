package textutil

import (
	"strings"
	"unicode"
)

var stopWords = func() map[string]struct{} {
	words := strings.Fields(`a about after all also an and are as at be been but by can could
		did do does for from had has have he her his how i if in into is it its just more most
		new not now of on one or our out over said she so some than that the their them then
		there these they this those through to up was we were what when which while who will
		with would you your`)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()

// Words splits folded text into letter/digit runs, keeping short words.
func Words(text string) []string {
	return strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EnglishRatio returns the share of words in text that are common English
// function words. Ordinary English prose sits well above 0.2; other
// languages and gibberish sit near zero.
func EnglishRatio(text string) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if _, ok := stopWords[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// LooksEnglish reports whether text reads as English prose.
func LooksEnglish(text string) bool {
	if WordCount(text) < 8 {
		return EnglishRatio(text) > 0
	}
	return EnglishRatio(text) >= 0.12
}

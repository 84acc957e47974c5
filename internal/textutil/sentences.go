package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences breaks text on terminal punctuation followed by whitespace.
// Whitespace inside each sentence is collapsed.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// absorb closing quotes and repeated punctuation
			j := i + 1
			for j < len(runes) && strings.ContainsRune(".!?\"'”’)", runes[j]) {
				j++
			}
			if j == len(runes) || unicode.IsSpace(runes[j]) {
				if s := strings.TrimSpace(string(runes[start:j])); s != "" {
					sentences = append(sentences, s)
				}
				start = j
				i = j
			}
		}
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// LeadSentences returns up to n leading sentences of text joined by spaces.
func LeadSentences(text string, n int) string {
	if n <= 0 {
		return ""
	}
	sentences := SplitSentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " ")
}

// Chunk groups sentences into pieces no longer than maxChars runes, preserving
// order. Oversized sentences are split on word boundaries, and oversized words
// are split by rune count.
func Chunk(text string, maxChars int) []string {
	sentences := SplitSentences(text)
	if maxChars <= 0 {
		if len(sentences) == 0 {
			return nil
		}
		return []string{strings.Join(sentences, " ")}
	}
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	add := func(piece string) {
		pieceLen := utf8.RuneCountInString(piece)
		curLen := utf8.RuneCountInString(current.String())
		if curLen > 0 && curLen+1+pieceLen > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(piece)
	}
	for _, sentence := range sentences {
		if utf8.RuneCountInString(sentence) <= maxChars {
			add(sentence)
			continue
		}
		for _, word := range strings.Fields(sentence) {
			for _, part := range splitRunes(word, maxChars) {
				add(part)
			}
		}
	}
	flush()
	return chunks
}

func splitRunes(word string, size int) []string {
	runes := []rune(word)
	if len(runes) <= size {
		return []string{word}
	}
	var parts []string
	for len(runes) > size {
		parts = append(parts, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

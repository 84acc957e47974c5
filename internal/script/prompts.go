package script

import (
	"fmt"
	"strings"

	"newscast/internal/episode"
)

const primarySystemPrompt = `You are a professional news anchor writing copy for an audio news program. Write natural, engaging narration meant to be read aloud verbatim by a text-to-speech voice.

Rules:
- Plain spoken English only. No markdown, bullet points, headings, sound cues, stage directions, or speaker labels.
- Never mention segment numbers, episode structure, links, or that you are an AI.
- Attribute facts to their sources in natural speech.
- Open with a brief introduction, use smooth transitions between stories, and close with a short sign-off.

Respond with JSON only: {"title": "short spoken-friendly title", "narration": "full narration text"}`

const simplifiedSystemPrompt = `You write short spoken news updates. Reply with the narration text only, in plain English sentences, with no formatting or labels.`

func primaryUserPrompt(plan SegmentPlan, topic episode.TopicSpec, band wordBand) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Working title: %s\n", plan.Title)
	fmt.Fprintf(&b, "Program focus: %s\n", topicPhrase(topic))
	if plan.Recap {
		b.WriteString("This part of the program revisits a story covered earlier; recap it briefly and add context.\n")
	}
	fmt.Fprintf(&b, "Length: about %d words (between %d and %d).\n\n", band.target, band.low, band.high)
	b.WriteString("Stories to cover:\n")
	writeArticles(&b, plan.Articles, true)
	return b.String()
}

func simplifiedUserPrompt(plan SegmentPlan, topic episode.TopicSpec, band wordBand) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write about %d words of spoken news about %s covering:\n", band.target, topicPhrase(topic))
	writeArticles(&b, plan.Articles, false)
	return b.String()
}

func writeArticles(b *strings.Builder, articles []episode.Article, detailed bool) {
	for i, a := range articles {
		fmt.Fprintf(b, "%d. %s (Source: %s)\n", i+1, strings.TrimSpace(a.Title), strings.TrimSpace(a.Source))
		if !detailed {
			continue
		}
		if text := clip(a.Text(), articleTextRunes); text != "" {
			fmt.Fprintf(b, "   %s\n", text)
		}
	}
}

func topicPhrase(topic episode.TopicSpec) string {
	if topic.Mode == episode.TopicCategory {
		return topic.Value + " news"
	}
	return topic.Value
}

func clip(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

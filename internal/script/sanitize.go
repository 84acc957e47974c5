package script

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"newscast/internal/textutil"
)

var (
	stageDirectionPattern = regexp.MustCompile(`(?i)\[[^\]]*\]|\((?:music|pause|sound|sfx|intro|outro|beat|laughs?|applause)[^)]*\)`)
	speakerLabelPattern   = regexp.MustCompile(`(?im)^\s*(?:host|anchor|narrator|announcer|reporter|speaker\s*\d*)\s*:\s*`)
	headingPattern        = regexp.MustCompile(`(?m)^\s*#{1,6}\s*`)
	bulletPattern         = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)
	emphasisPattern       = regexp.MustCompile("\\*\\*|__|`")
	segmentRefPattern     = regexp.MustCompile(`(?i)\b(?:segment|part|chapter)\s+(?:\d+|one|two|three|four|five|six|seven|eight|nine|ten)\b`)
	chromePattern         = regexp.MustCompile(`(?i)\b(?:click (?:here|the link)|subscribe|link in the description|as an ai|language model|word count|duration_minutes|json)\b`)
)

// Sanitize removes markdown, stage directions, and speaker labels so the text
// can be read aloud verbatim.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = emphasisPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = speakerLabelPattern.ReplaceAllString(text, "")
	text = stageDirectionPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "*", "")

	var paragraphs []string
	for _, block := range strings.Split(text, "\n") {
		if line := strings.Join(strings.Fields(block), " "); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

var (
	errEmpty        = errors.New("script is empty")
	errNotEnglish   = errors.New("script does not read as English")
	errSegmentRef   = errors.New("script references segment numbering")
	errInterfaceRef = errors.New("script contains interface or model chatter")
)

// Validate reports why text is unfit for narration, or nil.
func Validate(text string, minWords int) error {
	if strings.TrimSpace(text) == "" {
		return errEmpty
	}
	if words := textutil.WordCount(text); words < minWords {
		return fmt.Errorf("script too short: %d words, need %d", words, minWords)
	}
	if !textutil.LooksEnglish(text) {
		return errNotEnglish
	}
	if segmentRefPattern.MatchString(text) {
		return errSegmentRef
	}
	if chromePattern.MatchString(text) {
		return errInterfaceRef
	}
	return nil
}

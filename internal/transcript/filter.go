package transcript

import (
	"strings"
	"unicode/utf8"
)

// Verdict explains why a transcript was accepted or rejected.
type Verdict string

const (
	VerdictOK       Verdict = "ok"
	VerdictEmpty    Verdict = "empty"
	VerdictTooShort Verdict = "too_short"
	VerdictGarbage  Verdict = "garbage"
)

// Filter rejects blank, too-short, and hallucinated transcripts.
type Filter struct {
	garbage  []string
	minRunes int
}

// NewFilter builds a filter. Garbage phrases match case-insensitively as substrings.
func NewFilter(garbage []string, minRunes int) Filter {
	phrases := make([]string, 0, len(garbage))
	for _, phrase := range garbage {
		phrase = strings.ToLower(Normalize(phrase))
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return Filter{garbage: phrases, minRunes: max(minRunes, 0)}
}

// Clean normalizes text and returns it with VerdictOK, or "" with the rejection reason.
func (f Filter) Clean(text string) (string, Verdict) {
	text = Normalize(text)
	if text == "" {
		return "", VerdictEmpty
	}
	if utf8.RuneCountInString(text) < f.minRunes {
		return "", VerdictTooShort
	}
	lower := strings.ToLower(text)
	for _, phrase := range f.garbage {
		if strings.Contains(lower, phrase) {
			return "", VerdictGarbage
		}
	}
	return text, VerdictOK
}

package session

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Classifier decides whether a reply keeps the conversation open.
type Classifier struct {
	phrases   [][]string
	threshold float64
}

// NewClassifier builds a classifier over fallback phrases. A threshold above
// zero also accepts Jaro-Winkler near matches, which absorbs STT-style
// misspellings in replies echoed back from the dialogue engine.
func NewClassifier(fallbackPhrases []string, fuzzyThreshold float64) *Classifier {
	c := &Classifier{threshold: fuzzyThreshold}
	for _, phrase := range fallbackPhrases {
		words := tokens(phrase)
		if len(words) > 0 {
			c.phrases = append(c.phrases, words)
		}
	}
	return c
}

// IsQuestion reports whether reply is a genuine follow-up question: it
// contains "?" and none of the fallback phrases.
func (c *Classifier) IsQuestion(reply string) bool {
	if !strings.Contains(reply, "?") {
		return false
	}
	return !c.IsFallback(reply)
}

// IsFallback reports whether reply matches an apology or re-prompt phrase.
func (c *Classifier) IsFallback(reply string) bool {
	words := tokens(reply)
	if len(words) == 0 {
		return false
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, phrase := range c.phrases {
		if strings.Contains(joined, " "+strings.Join(phrase, " ")+" ") {
			return true
		}
		if c.threshold > 0 && c.fuzzy(words, phrase) {
			return true
		}
	}
	return false
}

func (c *Classifier) fuzzy(words, phrase []string) bool {
	n := len(phrase)
	if n > len(words) {
		return false
	}
	target := strings.Join(phrase, " ")
	for i := 0; i+n <= len(words); i++ {
		window := strings.Join(words[i:i+n], " ")
		if matchr.JaroWinkler(window, target, false) >= c.threshold {
			return true
		}
	}
	return false
}

// tokens lowercases text, folds typographic apostrophes, and splits on
// anything that is not a letter, digit, or apostrophe.
func tokens(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return strings.FieldsFunc(text, func(r rune) bool {
		return r != '\'' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

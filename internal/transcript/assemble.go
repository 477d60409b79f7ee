// Package transcript assembles recognizer output and filters transcripts
// that should never reach the dialogue engine.
package transcript

import "strings"

var quoteFolder = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "“", `"`, "”", `"`)

// Assemble joins final recognizer segments into one normalized transcript.
func Assemble(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return Normalize(strings.Join(segments, " "))
}

// Normalize collapses whitespace and folds typographic quotes to ASCII.
func Normalize(text string) string {
	return strings.Join(strings.Fields(quoteFolder.Replace(text)), " ")
}

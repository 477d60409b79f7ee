package config

import (
	"fmt"
	"strings"
	"unicode"
)

// argvSplitter accumulates words for ParseArgv.
type argvSplitter struct {
	words   []string
	word    strings.Builder
	started bool
}

func (s *argvSplitter) add(r rune) {
	s.word.WriteRune(r)
	s.started = true
}

// end closes the current word. Quoted empty strings ("") still count as a word.
func (s *argvSplitter) end() {
	if !s.started {
		return
	}
	s.words = append(s.words, s.word.String())
	s.word.Reset()
	s.started = false
}

// ParseArgv splits a command line into words the way a POSIX shell would for
// plain words, single and double quotes, and backslash escapes. No expansion
// is performed. A line starting with '#' is treated as empty.
func ParseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || input[0] == '#' {
		return nil, nil
	}

	var (
		s       argvSplitter
		quote   rune
		escaped bool
	)
	for _, r := range input {
		if escaped {
			s.add(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
			s.started = true
		case quote != 0:
			s.add(r)
		case r == '\'' || r == '"':
			quote = r
			s.started = true
		case unicode.IsSpace(r):
			s.end()
		default:
			s.add(r)
		}
	}

	switch {
	case escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.end()
	return s.words, nil
}

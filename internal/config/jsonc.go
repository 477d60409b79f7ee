package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC turns JSONC into plain JSON of the same length: comments and
// trailing commas are overwritten with spaces so decoder offsets still point
// at the original line and column.
func normalizeJSONC(content string) (string, error) {
	buf := []byte(content)
	comma := -1 // index of the last comma not yet followed by a value

	for i := 0; i < len(buf); i++ {
		switch c := buf[i]; {
		case c == '"':
			i = skipString(buf, i)
			comma = -1
		case c == '/' && i+1 < len(buf) && buf[i+1] == '/':
			for ; i < len(buf) && buf[i] != '\n' && buf[i] != '\r'; i++ {
				buf[i] = ' '
			}
		case c == '/' && i+1 < len(buf) && buf[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if buf[i] != '\n' && buf[i] != '\r' && buf[i] != '\t' {
					buf[i] = ' '
				}
			}
			i--
		case c == ',':
			comma = i
		case c == '}' || c == ']':
			if comma >= 0 {
				buf[comma] = ' '
			}
			comma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			comma = -1
		}
	}
	return string(buf), nil
}

// skipString returns the index of the quote closing the string opened at start.
func skipString(buf []byte, start int) int {
	for i := start + 1; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(buf)
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("multiple JSON values are not allowed")
	}
}

func wrapJSONDecodeError(content string, err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		offset    int64
	)
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// offsetToLineCol maps a 1-based decoder offset to a 1-based line and column.
func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	prefix := content[:min(int(offset), len(content))-1]
	line := 1 + strings.Count(prefix, "\n")
	col := len(prefix) - strings.LastIndexByte(prefix, '\n')
	return line, col
}

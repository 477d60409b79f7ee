package indicator

import (
	"os"
	"strings"
)

type messages struct {
	listening string
	thinking  string
}

func messagesFromEnv() messages {
	return messagesFor(os.Getenv("LANG"))
}

func messagesFor(lang string) messages {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(lang, "hi"):
		return messages{listening: "सुन रहा हूँ…", thinking: "सोच रहा हूँ…"}
	default:
		return messages{listening: "Listening…", thinking: "Thinking…"}
	}
}

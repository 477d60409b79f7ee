package dialogue

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/logging"
)

// maxStopWords bounds how long an utterance may be and still count as a stop command.
const maxStopWords = 3

// ConversationOptions configure a Conversation.
type ConversationOptions struct {
	SystemPrompt string
	// HistoryTurns is the number of user/assistant exchanges kept.
	HistoryTurns int
	StopKeywords []string
	Replies      config.RepliesConfig
	Logger       *slog.Logger
}

// Conversation keeps short-term memory, answers sentinels and stop commands
// locally, and forwards everything else to a Provider.
type Conversation struct {
	provider Provider
	opts     ConversationOptions
	stops    [][]string
	logger   *slog.Logger

	mu      sync.Mutex
	history []Message
}

// NewConversation wraps provider.
func NewConversation(provider Provider, opts ConversationOptions) *Conversation {
	stops := make([][]string, 0, len(opts.StopKeywords))
	for _, kw := range opts.StopKeywords {
		if words := tokenize(kw); len(words) > 0 {
			stops = append(stops, words)
		}
	}
	return &Conversation{
		provider: provider,
		opts:     opts,
		stops:    stops,
		logger:   logging.Component(opts.Logger, "dialogue"),
	}
}

// Respond returns the reply for input, which is a transcript or a sentinel.
func (c *Conversation) Respond(ctx context.Context, input string) (string, error) {
	switch input {
	case SentinelTimeout:
		c.Clear()
		return c.opts.Replies.Timeout, nil
	case SentinelEmpty:
		return c.opts.Replies.Empty, nil
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return c.opts.Replies.Empty, nil
	}
	if c.IsStop(input) {
		c.logger.Debug("stop keyword matched", "input", input)
		c.Clear()
		return c.opts.Replies.Stop, nil
	}

	req := Request{SystemPrompt: c.opts.SystemPrompt}
	c.mu.Lock()
	req.Messages = append(append([]Message(nil), c.history...), Message{Role: RoleUser, Content: input})
	c.mu.Unlock()

	reply, err := c.provider.Reply(ctx, req)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply != "" {
		c.remember(input, reply)
	}
	return reply, nil
}

// IsStop reports whether input is a short utterance containing a stop keyword
// as whole words.
func (c *Conversation) IsStop(input string) bool {
	words := tokenize(input)
	if len(words) == 0 || len(words) > maxStopWords {
		return false
	}
	for _, kw := range c.stops {
		if containsRun(words, kw) {
			return true
		}
	}
	return false
}

// History returns a copy of the remembered messages.
func (c *Conversation) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.history...)
}

// Clear forgets all remembered exchanges.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

func (c *Conversation) remember(user, assistant string) {
	if c.opts.HistoryTurns <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history,
		Message{Role: RoleUser, Content: user},
		Message{Role: RoleAssistant, Content: assistant},
	)
	if limit := 2 * c.opts.HistoryTurns; len(c.history) > limit {
		c.history = append([]Message(nil), c.history[len(c.history)-limit:]...)
	}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func containsRun(words, run []string) bool {
	for i := 0; i+len(run) <= len(words); i++ {
		match := true
		for j := range run {
			if words[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Package dialogue defines the reply-generation capability and the
// conversation memory that sits in front of it.
package dialogue

import "context"

// Reserved inputs the orchestrator sends instead of a transcript.
const (
	SentinelTimeout = "conversation-timed-out"
	SentinelEmpty   = "transcript-empty"
)

// Role names a message author.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// Request is everything a provider needs to produce one reply.
type Request struct {
	SystemPrompt string
	// Messages holds prior exchanges, oldest first, ending with the user turn.
	Messages []Message
}

// Latest returns the final user message, or "".
func (r Request) Latest() string {
	if len(r.Messages) == 0 {
		return ""
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != RoleUser {
		return ""
	}
	return last.Content
}

// Provider produces a reply for a request.
type Provider interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// IsSentinel reports whether input is one of the reserved sentinels.
func IsSentinel(input string) bool {
	return input == SentinelTimeout || input == SentinelEmpty
}

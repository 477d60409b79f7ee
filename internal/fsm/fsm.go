// Package fsm is the pure conversation state machine: given the outcome of a
// turn it yields the next conversation state and the follow-up the loop owes
// the dialogue engine.
package fsm

import "fmt"

type State string

type Event string

type Action string

const (
	StateStandby State = "standby"
	StateActive  State = "active"
)

const (
	// EventNoUtterance means the segmenter timed out without speech.
	EventNoUtterance Event = "no_utterance"
	// EventEmptyTranscript means speech was captured but transcription yielded nothing usable.
	EventEmptyTranscript Event = "empty_transcript"
	// EventTranscript means a usable transcript is ready for the dialogue engine.
	EventTranscript Event = "transcript"
	// EventQuestionReply means the reply asked a genuine follow-up question.
	EventQuestionReply Event = "question_reply"
	// EventStatementReply means the reply closed the exchange.
	EventStatementReply Event = "statement_reply"
	// EventReset forces standby, e.g. from an IPC request.
	EventReset Event = "reset"
)

const (
	ActionNone        Action = "none"
	ActionProcess     Action = "process"
	ActionSendTimeout Action = "send_timeout"
	ActionSendEmpty   Action = "send_empty"
)

// DefaultMaxRetries is the number of consecutive empty transcripts tolerated while active.
const DefaultMaxRetries = 2

// Conversation is the turn-taking state. The zero value is standby.
type Conversation struct {
	State      State
	Retries    int
	MaxRetries int
}

// New returns a standby conversation with the given retry bound.
func New(maxRetries int) Conversation {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return Conversation{State: StateStandby, MaxRetries: maxRetries}
}

// Active reports whether follow-up turns bypass the wake word.
func (c Conversation) Active() bool {
	return c.State == StateActive
}

// Apply returns the state after event and the action the caller must perform.
func (c Conversation) Apply(event Event) (Conversation, Action, error) {
	if c.State == "" {
		c.State = StateStandby
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	switch event {
	case EventReset:
		return c.standby(), ActionNone, nil
	case EventTranscript:
		c.Retries = 0
		return c, ActionProcess, nil
	case EventQuestionReply:
		c.State = StateActive
		c.Retries = 0
		return c, ActionNone, nil
	case EventStatementReply:
		return c.standby(), ActionNone, nil
	}

	switch c.State {
	case StateStandby:
		switch event {
		case EventNoUtterance, EventEmptyTranscript:
			return c, ActionNone, nil
		default:
			return c, ActionNone, invalidTransition(c.State, event)
		}
	case StateActive:
		switch event {
		case EventNoUtterance:
			return c.standby(), ActionSendTimeout, nil
		case EventEmptyTranscript:
			c.Retries++
			if c.Retries >= c.MaxRetries {
				return c.standby(), ActionSendTimeout, nil
			}
			return c, ActionSendEmpty, nil
		default:
			return c, ActionNone, invalidTransition(c.State, event)
		}
	default:
		return c, ActionNone, fmt.Errorf("unknown state %q", c.State)
	}
}

func (c Conversation) standby() Conversation {
	c.State = StateStandby
	c.Retries = 0
	return c
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

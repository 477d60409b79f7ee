// Package ipc serves the single-instance control socket used by `hark status`
// and `hark reset`. Messages are one JSON object per line in each direction.
package ipc

const (
	CommandStatus = "status"
	CommandReset  = "reset"
)

// Request names one control command.
type Request struct {
	Command string `json:"command"`
}

// Response carries the conversation state and, for status, the current phase in Message.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

package session

import "github.com/papercomputeco/folio/pkg/llm"

// Phase is the position of a Session in its send/stream cycle.
type Phase int

const (
	// PhaseIdle means no exchange is outstanding and the last one, if any,
	// completed.
	PhaseIdle Phase = iota

	// PhaseSending means the request is issued and no response has arrived.
	PhaseSending

	// PhaseStreaming means the body is being read.
	PhaseStreaming

	// PhaseErrored means the last exchange failed. A new send leaves it.
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// State is a copy of the observable session state.
type State struct {
	Messages []llm.ChatMessage

	// Loading is true while a request is outstanding and no terminal event
	// has occurred.
	Loading bool

	// Err is nil unless the last exchange failed. When set it is a *Error.
	Err error

	Phase Phase

	// Usage is the token usage reported by the last exchange, if any.
	Usage *llm.Usage
}

// ErrorMessage returns the display text of Err, or "" when there is none.
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

package eventstream

import (
	"time"

	"github.com/papercomputeco/folio/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after an assistant reply streamed to
	// the end without an error.
	EventTypeTurnCompleted = "folio.chat.turn.completed"

	// EventTypeTurnFailed is emitted after an exchange ended in an error,
	// including cancellation.
	EventTypeTurnFailed = "folio.chat.turn.failed"
)

// TurnEvent is a transport-neutral event payload for one chat exchange.
type TurnEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	SessionID     string      `json:"session_id"`
	RequestMeta   TurnRequest `json:"request_meta"`
	Outcome       TurnOutcome `json:"outcome"`
}

// TurnRequest captures request lifecycle metadata for the event.
type TurnRequest struct {
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	DurationMs       int64     `json:"duration_ms"`
	MessageCount     int       `json:"message_count"`
	PortfolioContext bool      `json:"portfolio_context"`
}

// TurnOutcome describes how the exchange ended.
type TurnOutcome struct {
	// ErrorKind is the session error kind, empty on success.
	ErrorKind string `json:"error_kind,omitempty"`

	// ErrorMessage is the user-visible error, empty on success.
	ErrorMessage string `json:"error_message,omitempty"`

	ReplyLength        int        `json:"reply_length"`
	Frames             int        `json:"frames"`
	UnrecognizedFrames int        `json:"unrecognized_frames"`
	SkippedLines       int        `json:"skipped_lines"`
	Usage              *llm.Usage `json:"usage,omitempty"`
}

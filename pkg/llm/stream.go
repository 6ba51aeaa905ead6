package llm

import (
	"encoding/json"
	"strings"
)

// EventKind classifies a decoded stream frame.
type EventKind int

const (
	// EventUnrecognized is any payload that is not JSON or has an unknown
	// shape. Consumers skip it.
	EventUnrecognized EventKind = iota

	// EventTextDelta carries a fragment to append to the assistant reply.
	EventTextDelta

	// EventError terminates the stream with a user-visible message.
	EventError

	// EventFinish reports token usage once generation completes. It does not
	// end the stream; the body closing does.
	EventFinish
)

// Frame "type" discriminators.
const (
	StreamTypeTextDelta = "text-delta"
	StreamTypeError     = "error"
	StreamTypeFinish    = "finish"
)

func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text-delta"
	case EventError:
		return "error"
	case EventFinish:
		return "finish"
	default:
		return "unrecognized"
	}
}

// StreamEvent is the classified form of one frame payload. Only the fields
// matching Kind are set.
type StreamEvent struct {
	Kind EventKind

	// Type is the raw "type" discriminator, kept for logging. Empty when the
	// payload did not parse.
	Type string

	// Text is the delta fragment, verbatim (EventTextDelta).
	Text string

	// Message is the server-reported error (EventError).
	Message string

	// Usage is the reported token usage (EventFinish), when present.
	Usage *Usage
}

// streamPayload mirrors the JSON frame shapes. Pointer fields distinguish a
// missing field from an empty string.
type streamPayload struct {
	Type    string  `json:"type"`
	Text    *string `json:"text"`
	Message *string `json:"message"`
	Usage   *Usage  `json:"usage"`
}

// ParseStreamEvent classifies a frame payload. It reports false when the
// payload is empty and therefore carries no event. Malformed payloads never
// produce an error: they classify as EventUnrecognized so a single bad frame
// cannot abort the stream.
func ParseStreamEvent(payload string) (StreamEvent, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return StreamEvent{}, false
	}

	var p streamPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return StreamEvent{Kind: EventUnrecognized}, true
	}

	switch {
	case p.Type == StreamTypeTextDelta && p.Text != nil:
		return StreamEvent{Kind: EventTextDelta, Type: p.Type, Text: *p.Text}, true
	case p.Type == StreamTypeError && p.Message != nil:
		return StreamEvent{Kind: EventError, Type: p.Type, Message: *p.Message}, true
	case p.Type == StreamTypeFinish:
		return StreamEvent{Kind: EventFinish, Type: p.Type, Usage: p.Usage}, true
	default:
		return StreamEvent{Kind: EventUnrecognized, Type: p.Type}, true
	}
}

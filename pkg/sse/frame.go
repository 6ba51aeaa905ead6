// Package sse decodes the line-framed server-sent event stream returned by
// the advisor chat endpoint.
//
// The wire convention is one record per line:
//
//	data: <json-payload>\n
//
// with optional blank separator lines. Only "data: " lines are frames; every
// other line (blank separators, ":" comments, other SSE fields) is skipped.
// The end of the stream is signaled by the transport closing the body, never
// by a sentinel payload.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "errors"

// dataPrefix is the literal prefix that marks a line as a frame.
const dataPrefix = "data: "

// ErrNoBody is returned by a Decoder that was created without a readable
// response body.
var ErrNoBody = errors.New("no response body")

// Frame is a single decoded "data: " record.
type Frame struct {
	// Payload is the line content after the "data: " prefix, with
	// surrounding whitespace trimmed. It may be empty.
	Payload string

	// Line is the 1-based line number of the frame within the stream.
	Line int
}

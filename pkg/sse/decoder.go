package sse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	initialBufferSize = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// Decoder turns a raw response body into a sequence of Frames. It tolerates
// arbitrary chunk boundaries, including splits in the middle of a line and in
// the middle of a multi-byte UTF-8 character.
//
// ┌──────────────────┐
// │ src io.Reader    │──▶ optional tee (raw bytes)
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ UTF-8 transform  │  carries incomplete code points across reads
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ line scanner     │  complete lines only, trailing fragment dropped
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
//
// A Decoder is bound to one body and is not reusable across requests.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
	skipped int
	noBody  bool
}

// Option configures a Decoder.
type Option func(*options)

type options struct {
	tee io.Writer
}

// WithTee copies every raw byte read from the source to w before decoding.
// Write errors on w surface as read errors from the Decoder.
func WithTee(w io.Writer) Option {
	return func(o *options) {
		o.tee = w
	}
}

// NewDecoder returns a Decoder reading from src. A nil src produces a
// Decoder whose Next always fails with ErrNoBody.
func NewDecoder(src io.Reader, opts ...Option) *Decoder {
	if src == nil {
		return &Decoder{noBody: true}
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.tee != nil {
		src = io.TeeReader(src, o.tee)
	}

	scanner := bufio.NewScanner(transform.NewReader(src, unicode.UTF8.NewDecoder()))
	scanner.Buffer(make([]byte, initialBufferSize), maxLineSize)
	scanner.Split(scanCompleteLines)

	return &Decoder{scanner: scanner}
}

// Next returns the next frame. It blocks until a complete "data: " line is
// available. Next returns nil, nil when the source is exhausted; a partial
// line left over at that point is discarded.
func (d *Decoder) Next() (*Frame, error) {
	if d.noBody {
		return nil, ErrNoBody
	}

	for d.scanner.Scan() {
		d.line++
		raw := d.scanner.Text()

		payload, ok := strings.CutPrefix(raw, dataPrefix)
		if !ok {
			d.skipped++
			continue
		}

		return &Frame{
			Payload: strings.TrimSpace(payload),
			Line:    d.line,
		}, nil
	}

	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}

	return nil, nil
}

// Frames returns an iterator over the remaining frames. Iteration stops
// after the first error is yielded.
func (d *Decoder) Frames() iter.Seq2[*Frame, error] {
	return func(yield func(*Frame, error) bool) {
		for {
			frame, err := d.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if frame == nil {
				return
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

// Skipped reports how many complete lines were not frames: blank separators,
// comments, and any other non "data: " line.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// scanCompleteLines is bufio.ScanLines without the final-token rule: data
// after the last newline is never returned, because a frame is only complete
// once its terminating newline has arrived.
func scanCompleteLines(data []byte, _ bool) (int, []byte, error) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		// Request more data, or at EOF drop the unterminated fragment.
		return 0, nil, nil
	}

	return i + 1, bytes.TrimSuffix(data[:i], []byte{'\r'}), nil
}

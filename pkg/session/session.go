// Package session drives one chat view: it sends a message, streams the
// reply into a transcript and exposes the resulting state.
//
// All failures of an exchange are converted into State.Err. SendMessage
// only returns an error for its own guards (ErrEmptyMessage, ErrBusy).
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/folio/pkg/client"
	"github.com/papercomputeco/folio/pkg/eventstream"
	"github.com/papercomputeco/folio/pkg/eventstream/nop"
	"github.com/papercomputeco/folio/pkg/llm"
	"github.com/papercomputeco/folio/pkg/logger"
	"github.com/papercomputeco/folio/pkg/sse"
	"github.com/papercomputeco/folio/pkg/transcript"
)

// Streamer issues a chat request and returns the streaming response body.
// *client.Client implements it.
type Streamer interface {
	StreamChat(ctx context.Context, req llm.ChatRequest) (io.ReadCloser, error)
}

// Session is safe for concurrent use, but exchanges never overlap: a send
// while another is outstanding is rejected with ErrBusy.
type Session struct {
	id         string
	streamer   Streamer
	transcript *transcript.Transcript
	logger     *slog.Logger
	publisher  eventstream.Publisher
	observer   func(State)
	recorder   func() (io.WriteCloser, error)

	mu        sync.Mutex
	busy      bool
	phase     Phase
	usage     *llm.Usage
	cancel    context.CancelFunc
	portfolio *llm.PortfolioContext
}

// New creates a Session that sends through streamer.
func New(streamer Streamer, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		streamer:   streamer,
		transcript: transcript.New(),
		logger:     logger.Nop(),
		publisher:  nop.NewPublisher(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(
		slog.String("module", "session"),
		slog.String("session_id", s.id),
	)
	return s
}

// ID returns the session identifier carried by turn events.
func (s *Session) ID() string {
	return s.id
}

// SetPortfolioContext replaces the portfolio context sent with later
// requests. A nil context omits it.
func (s *Session) SetPortfolioContext(pc *llm.PortfolioContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.portfolio = pc
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	snap := s.transcript.Snapshot()
	st := State{
		Messages: snap.Messages,
		Loading:  snap.Loading,
		Err:      snap.Err,
		Phase:    s.phase,
	}
	if s.usage != nil {
		usage := *s.usage
		st.Usage = &usage
	}
	return st
}

// Cancel aborts the outstanding exchange, if any. The exchange ends with an
// ErrCanceled error and keeps any partial reply.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.logger.Debug("canceling exchange")
		s.cancel()
	}
}

// Clear empties the transcript and the last error.
func (s *Session) Clear() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := s.transcript.Clear(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.phase = PhaseIdle
	s.usage = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// SendMessage appends content as a user message and streams the assistant
// reply. It blocks until the exchange ends.
func (s *Session) SendMessage(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := s.transcript.AppendUserMessage(content); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.transcript.BeginAssistantPlaceholder(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.busy = true
	s.phase = PhaseSending
	s.usage = nil
	s.cancel = cancel
	portfolio := s.portfolio
	s.mu.Unlock()

	s.notify()

	messages := s.transcript.Messages()
	req := llm.ChatRequest{
		// The trailing placeholder is not part of the request.
		Messages:         messages[:len(messages)-1],
		PortfolioContext: portfolio,
	}

	t := &turn{startedAt: time.Now(), messageCount: len(req.Messages), portfolio: portfolio != nil}
	s.exchange(ctx, req, t)

	// The session is already idle here, so a slow publisher never holds up
	// the next send.
	s.publish(ctx, t)
	return nil
}

// turn accumulates what one exchange did, for logging and turn events.
type turn struct {
	startedAt    time.Time
	messageCount int
	portfolio    bool

	frames       int
	unrecognized int
	skipped      int
	usage        *llm.Usage
	replyLength  int
	err          *Error
}

func (s *Session) exchange(ctx context.Context, req llm.ChatRequest, t *turn) {
	body, err := s.streamer.StreamChat(ctx, req)
	if err != nil {
		s.fail(t, s.classify(ctx, err))
		return
	}
	if body == nil {
		s.fail(t, s.classify(ctx, sse.ErrNoBody))
		return
	}
	defer body.Close()

	var opts []sse.Option
	if rec := s.openRecorder(); rec != nil {
		defer rec.Close()
		opts = append(opts, sse.WithTee(rec))
	}
	dec := sse.NewDecoder(body, opts...)
	defer func() { t.skipped = dec.Skipped() }()

	s.setPhase(PhaseStreaming)

	for frame, err := range dec.Frames() {
		if err != nil {
			s.fail(t, s.classify(ctx, err))
			return
		}

		event, ok := llm.ParseStreamEvent(frame.Payload)
		if !ok {
			continue
		}
		t.frames++

		switch event.Kind {
		case llm.EventTextDelta:
			if err := s.transcript.ApplyDelta(event.Text); err != nil {
				s.logger.Error("applying delta", slog.Any("error", err))
				continue
			}
			s.notify()

		case llm.EventError:
			s.fail(t, &Error{Kind: ErrServerReported, Message: event.Message})
			return

		case llm.EventFinish:
			if event.Usage != nil {
				usage := *event.Usage
				t.usage = &usage
				s.mu.Lock()
				s.usage = &usage
				s.mu.Unlock()
			}

		default:
			t.unrecognized++
			s.logger.Debug("skipping unrecognized frame",
				slog.Int("line", frame.Line),
				slog.String("type", event.Type),
			)
		}
	}

	s.mu.Lock()
	// A Cancel that landed before this point may surface as a clean end of
	// body. Once s.cancel is cleared below, Cancel is a no-op.
	if errors.Is(ctx.Err(), context.Canceled) {
		s.mu.Unlock()
		s.fail(t, s.classify(ctx, ctx.Err()))
		return
	}
	s.transcript.FinalizeOnComplete()
	s.phase = PhaseIdle
	s.endLocked(t)
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("exchange completed",
		slog.Int("frames", t.frames),
		slog.Int("unrecognized", t.unrecognized),
		slog.Duration("duration", time.Since(t.startedAt)),
	)
}

// classify maps a failure to a presentable *Error.
func (s *Session) classify(ctx context.Context, err error) *Error {
	var statusErr *client.StatusError

	switch {
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return &Error{Kind: ErrCanceled, Message: canceledMessage, Cause: err}
	case errors.As(err, &statusErr):
		return &Error{Kind: ErrRequestRejected, Message: statusErr.Detail, Cause: err}
	case errors.Is(err, client.ErrNoBody), errors.Is(err, sse.ErrNoBody):
		return &Error{Kind: ErrStreamUnavailable, Message: streamUnavailableMessage, Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrTransport, Message: timeoutMessage, Cause: err}
	default:
		return &Error{Kind: ErrTransport, Message: transportMessage, Cause: err}
	}
}

func (s *Session) fail(t *turn, e *Error) {
	t.err = e

	s.mu.Lock()
	s.transcript.FinalizeOnError(e)
	s.phase = PhaseErrored
	s.endLocked(t)
	s.mu.Unlock()
	s.notify()

	s.logger.Warn("exchange failed",
		slog.String("kind", e.Kind.Error()),
		slog.String("message", e.Message),
		slog.Any("cause", e.Cause),
	)
}

// endLocked releases the session for the next send. s.mu must be held.
func (s *Session) endLocked(t *turn) {
	s.busy = false
	s.cancel = nil
	if messages := s.transcript.Messages(); len(messages) > 0 {
		if last := messages[len(messages)-1]; last.Role == llm.RoleAssistant {
			t.replyLength = len(last.Content)
		}
	}
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.observer == nil {
		return
	}
	s.observer(s.State())
}

func (s *Session) openRecorder() io.WriteCloser {
	if s.recorder == nil {
		return nil
	}
	rec, err := s.recorder()
	if err != nil {
		s.logger.Warn("recording disabled for this exchange", slog.Any("error", err))
		return nil
	}
	return rec
}

func (s *Session) publish(ctx context.Context, t *turn) {
	completedAt := time.Now()

	event := &eventstream.TurnEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     completedAt,
		SessionID:     s.id,
		RequestMeta: eventstream.TurnRequest{
			StartedAt:        t.startedAt,
			CompletedAt:      completedAt,
			DurationMs:       completedAt.Sub(t.startedAt).Milliseconds(),
			MessageCount:     t.messageCount,
			PortfolioContext: t.portfolio,
		},
		Outcome: eventstream.TurnOutcome{
			Frames:             t.frames,
			UnrecognizedFrames: t.unrecognized,
			SkippedLines:       t.skipped,
			Usage:              t.usage,
			ReplyLength:        t.replyLength,
		},
	}

	if t.err != nil {
		event.EventType = eventstream.EventTypeTurnFailed
		event.Outcome.ErrorKind = t.err.Kind.Error()
		event.Outcome.ErrorMessage = t.err.Message
	}
	// Failed and canceled turns are still reported.
	if err := s.publisher.PublishTurn(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("publishing turn event", slog.Any("error", err))
	}
}

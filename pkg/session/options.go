package session

import (
	"io"
	"log/slog"

	"github.com/papercomputeco/folio/pkg/eventstream"
	"github.com/papercomputeco/folio/pkg/llm"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithObserver registers fn to be called with a fresh State after every
// change. fn runs on the goroutine that caused the change and must not block.
func WithObserver(fn func(State)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithPublisher sets the turn event publisher. Defaults to a no-op.
func WithPublisher(p eventstream.Publisher) Option {
	return func(s *Session) {
		s.publisher = p
	}
}

// WithPortfolioContext attaches portfolio context to every request.
func WithPortfolioContext(pc *llm.PortfolioContext) Option {
	return func(s *Session) {
		s.portfolio = pc
	}
}

// WithRecorder opens a writer per exchange that receives the raw response
// bytes. The session closes it when the exchange ends.
func WithRecorder(open func() (io.WriteCloser, error)) Option {
	return func(s *Session) {
		s.recorder = open
	}
}

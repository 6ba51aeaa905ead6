// Package transcript owns the ordered list of chat messages for one chat
// view and is the only code that mutates message content.
//
// The lifecycle of one exchange is:
//
//	AppendUserMessage -> BeginAssistantPlaceholder -> ApplyDelta* ->
//	FinalizeOnComplete | FinalizeOnError
//
// Readers receive copies through Snapshot and never observe a message
// being mutated in place.
package transcript

import (
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/folio/pkg/llm"
)

var (
	// ErrStreamInProgress is returned when an operation requires that no
	// assistant reply is currently streaming.
	ErrStreamInProgress = errors.New("assistant reply is still streaming")

	// ErrNoStreamInProgress is returned by ApplyDelta when there is no
	// in-progress assistant entry to append to.
	ErrNoStreamInProgress = errors.New("no assistant reply is streaming")

	// ErrNoUserMessage is returned by BeginAssistantPlaceholder when the
	// transcript does not end with a user message.
	ErrNoUserMessage = errors.New("transcript does not end with a user message")
)

// Snapshot is a point-in-time copy of a Transcript.
type Snapshot struct {
	Messages []llm.ChatMessage
	Loading  bool
	Err      error
}

// Transcript is safe for one writer and any number of concurrent readers.
type Transcript struct {
	mu         sync.RWMutex
	messages   []llm.ChatMessage
	inProgress bool
	err        error
}

// New returns an empty Transcript.
func New() *Transcript {
	return &Transcript{}
}

// AppendUserMessage appends a user entry and clears any error left by the
// previous exchange.
func (t *Transcript) AppendUserMessage(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inProgress {
		return ErrStreamInProgress
	}

	t.messages = append(t.messages, llm.NewUserMessage(text))
	t.err = nil
	return nil
}

// BeginAssistantPlaceholder appends an empty assistant entry directly after
// the user message and marks it in progress.
func (t *Transcript) BeginAssistantPlaceholder() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inProgress {
		return ErrStreamInProgress
	}
	if len(t.messages) == 0 || t.messages[len(t.messages)-1].Role != llm.RoleUser {
		return ErrNoUserMessage
	}

	t.messages = append(t.messages, llm.NewAssistantMessage(""))
	t.inProgress = true
	return nil
}

// ApplyDelta appends text to the in-progress assistant entry. The entry
// keeps its position; no new entry is ever inserted.
func (t *Transcript) ApplyDelta(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.inProgress {
		return ErrNoStreamInProgress
	}

	t.messages[len(t.messages)-1].Content += text
	return nil
}

// FinalizeOnError ends the in-progress exchange with err. The assistant
// placeholder is removed only while its content is still empty; partial
// output is kept as-is.
func (t *Transcript) FinalizeOnError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inProgress {
		last := len(t.messages) - 1
		if t.messages[last].Content == "" {
			t.messages = t.messages[:last]
		}
	}

	t.inProgress = false
	t.err = err
}

// FinalizeOnComplete ends the in-progress exchange successfully.
func (t *Transcript) FinalizeOnComplete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inProgress = false
}

// Clear removes every message and the last error.
func (t *Transcript) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inProgress {
		return ErrStreamInProgress
	}

	t.messages = nil
	t.err = nil
	return nil
}

// Messages returns a copy of the messages.
func (t *Transcript) Messages() []llm.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(t.messages)
}

// Snapshot returns a copy of the current state.
func (t *Transcript) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		Messages: slices.Clone(t.messages),
		Loading:  t.inProgress,
		Err:      t.err,
	}
}

// Package eventstream defines turn events emitted by a chat session and the
// publisher interface that ships them to a backend.
package eventstream

import "context"

// Publisher publishes turn events to an event stream backend.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnEvent) error
	Close() error
}

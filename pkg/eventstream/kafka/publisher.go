// Package kafka publishes turn events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/folio/pkg/eventstream"
)

const (
	defaultWriteTimeout = 10 * time.Second

	headerEventType     = "event_type"
	headerSchemaVersion = "schema_version"
)

var (
	// ErrNoBrokers is returned when no broker address is configured.
	ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

	// ErrNoTopic is returned when no topic is configured.
	ErrNoTopic = errors.New("kafka publisher requires a topic")
)

// Config is the Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration
}

// messageWriter is the subset of *kafkago.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes turn events as JSON messages keyed by session ID, so all
// turns of one session land on the same partition in order.
type Publisher struct {
	writer       messageWriter
	writeTimeout time.Duration
}

// NewPublisher creates a Publisher backed by a kafka-go Writer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		return nil, ErrNoTopic
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(writer, cfg.WriteTimeout), nil
}

func newPublisher(writer messageWriter, writeTimeout time.Duration) *Publisher {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Publisher{
		writer:       writer,
		writeTimeout: writeTimeout,
	}
}

// PublishTurn marshals event and writes it synchronously.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
			{Key: headerSchemaVersion, Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing turn event %s: %w", event.EventID, err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

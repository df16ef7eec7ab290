// Package kafka publishes novelty events to downstream consumers
// (notification senders, search indexers).
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
)

// DefaultNoveltyTopic is used when the config does not name one.
const DefaultNoveltyTopic = "vigiajus.novelties"

// NoveltyCreatedEvent is the wire format of one published novelty.
type NoveltyCreatedEvent struct {
	EventID      common.ID       `json:"event_id"`
	NoveltyID    common.ID       `json:"novelty_id"`
	ProcessID    common.ID       `json:"process_id"`
	CNJNumber    string          `json:"cnj_number"`
	TribunalName string          `json:"tribunal_name,omitempty"`
	Title        string          `json:"title"`
	Priority     common.Priority `json:"priority"`
	Tags         []string        `json:"tags,omitempty"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// writer abstracts kafka.Writer for testing.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the Kafka implementation of the novelty.EventPublisher port.
// Messages are keyed by CNJ number so every novelty of a process lands on
// the same partition, preserving per-process ordering.
type Publisher struct {
	writer writer
	topic  string
	logger logging.Logger
}

var _ novelty.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a Publisher from the Kafka config.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	topic := cfg.NoveltyTopic
	if topic == "" {
		topic = DefaultNoveltyTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxAttempts:  cfg.MaxRetries,
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// PublishNoveltyCreated emits one NoveltyCreatedEvent.
func (p *Publisher) PublishNoveltyCreated(ctx context.Context, n *novelty.Novelty) error {
	event := NoveltyCreatedEvent{
		EventID:      common.NewID(),
		NoveltyID:    n.ID,
		ProcessID:    n.ProcessID,
		CNJNumber:    n.CNJNumber,
		TribunalName: n.TribunalName,
		Title:        n.Title,
		Priority:     n.Priority,
		Tags:         n.Tags,
		Date:         n.Date,
		CreatedAt:    n.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "falha ao serializar evento")
	}

	msg := kafka.Message{
		Key:   []byte(n.CNJNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("novelty.created")},
			{Key: "priority", Value: []byte(n.Priority)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("novelty event publish failed",
			logging.String("novelty_id", n.ID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeEventPublish, "falha ao publicar evento de novidade")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Package events moves order events from the outbox table to Kafka and reacts
// to them on the consuming side.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/pkg/circuitbreaker"
)

const (
	DefaultTopic     = "shop.orders"
	headerEventType  = "event_type"
	defaultBatchSize = 100
)

type OutboxStore interface {
	GetUnpublishedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsPublished(ctx context.Context, id uuid.UUID) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

// OutboxPublisher polls the outbox and publishes every pending event at least
// once. An event is marked published only after the broker accepted it.
type OutboxPublisher struct {
	store     OutboxStore
	writer    MessageWriter
	breaker   *circuitbreaker.Breaker
	interval  time.Duration
	batchSize int
	log       *slog.Logger
}

func NewOutboxPublisher(store OutboxStore, writer MessageWriter, interval time.Duration, batchSize int,
	log *slog.Logger) *OutboxPublisher {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	log = log.With("component", "outbox-publisher")
	return &OutboxPublisher{
		store:     store,
		writer:    writer,
		breaker:   circuitbreaker.New(circuitbreaker.Settings{Name: "kafka-publisher"}, log),
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Run publishes on every tick until ctx is done.
func (p *OutboxPublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				p.log.WarnContext(ctx, "outbox publish failed", slog.Any("error", err))
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// PublishPending publishes one batch and returns how many events went out.
// It stops at the first failed write so events keep their order.
func (p *OutboxPublisher) PublishPending(ctx context.Context) (int, error) {
	events, err := p.store.GetUnpublishedEvents(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox events: %w", err)
	}

	published := 0
	for _, e := range events {
		err := circuitbreaker.Do(p.breaker, func() error {
			return p.writer.WriteMessages(ctx, Message(e))
		})
		if err != nil {
			return published, fmt.Errorf("publish event %s: %w", e.ID, err)
		}

		if err := p.store.MarkEventAsPublished(ctx, e.ID); err != nil {
			return published, err
		}
		published++
	}

	if published > 0 {
		p.log.DebugContext(ctx, "outbox events published", slog.Int("count", published))
	}
	return published, nil
}

func (p *OutboxPublisher) Close() error {
	return p.writer.Close()
}

// Message maps an outbox row to a Kafka message keyed by the aggregate id.
func Message(e *repository.OutboxEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(e.EventType)},
		},
		Time: e.CreatedAt,
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == headerEventType {
			return string(h.Value)
		}
	}
	return ""
}

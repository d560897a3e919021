package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_shop/internal/domain"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type CacheDeleter interface {
	Delete(ctx context.Context, s domain.Session) error
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

// CartCacheInvalidator drops the cached cart of the session that placed an
// order, so replicas that did not run the checkout stop serving stale lines.
type CartCacheInvalidator struct {
	reader MessageReader
	cache  CacheDeleter
	log    *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewCartCacheInvalidator(reader MessageReader, cache CacheDeleter, log *slog.Logger) *CartCacheInvalidator {
	return &CartCacheInvalidator{
		reader:     reader,
		cache:      cache,
		log:        log.With("component", "cart-cache-invalidator"),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Run consumes until ctx is done. Bad messages are logged and skipped; read
// errors are logged and retried with a growing delay.
func (c *CartCacheInvalidator) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.WarnContext(ctx, "read order event failed",
				slog.Duration("retry_in", backoff),
				slog.Any("error", err))

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		if err := c.Handle(ctx, m); err != nil {
			c.log.WarnContext(ctx, "order event not handled",
				slog.String("key", string(m.Key)),
				slog.Int64("offset", m.Offset),
				slog.Any("error", err))
		}
	}
}

// Handle processes one message. Events other than order.placed are ignored.
func (c *CartCacheInvalidator) Handle(ctx context.Context, m kafka.Message) error {
	if t := eventType(m); t != domain.EventOrderPlaced {
		return nil
	}

	var ev domain.OrderPlaced
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}

	sess := domain.Session{CustomerID: ev.CustomerID, SessionNo: ev.SessionNo}
	if !sess.Valid() {
		return fmt.Errorf("order %d: session %s: %w", ev.OrderID, sess.Key(), domain.ErrInvalidValue)
	}

	if err := c.cache.Delete(ctx, sess); err != nil {
		return fmt.Errorf("drop cart cache: %w", err)
	}

	c.log.DebugContext(ctx, "cart cache dropped",
		slog.Int64("order_id", ev.OrderID),
		slog.String("session", sess.Key()))
	return nil
}

func (c *CartCacheInvalidator) Close() error {
	return c.reader.Close()
}

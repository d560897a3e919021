package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a domain event waiting to be published to the broker.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Insert writes the event with the caller's transaction when ctx carries one.
func (r *OutboxRepository) Insert(ctx context.Context, e *OutboxEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := r.db.querier(ctx).ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID.String(), e.AggregateID, e.EventType, string(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", mapError(err))
	}
	return nil
}

// GetUnpublishedEvents returns up to limit events in creation order.
func (r *OutboxRepository) GetUnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.querier(ctx).QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox WHERE published_at IS NULL
		 ORDER BY created_at, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", mapError(err))
	}
	defer rows.Close()

	events := []*OutboxEvent{}
	for rows.Next() {
		var e OutboxEvent
		var payload string
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		e.Payload = []byte(payload)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *OutboxRepository) MarkEventAsPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.querier(ctx).ExecContext(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = $2`, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("mark outbox event %s: %w", id, mapError(err))
	}
	return nil
}

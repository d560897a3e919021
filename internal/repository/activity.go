package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

// ActivityRepository records what a session searched for and looked at.
type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) LogSearch(ctx context.Context, s domain.Session, at time.Time, query string) error {
	_, err := r.db.querier(ctx).ExecContext(ctx,
		`INSERT INTO search (cid, session_no, ts, query) VALUES ($1, $2, $3, $4)`,
		s.CustomerID, s.SessionNo, at.UTC(), query)
	if err != nil {
		return fmt.Errorf("log search: %w", mapError(err))
	}
	return nil
}

func (r *ActivityRepository) LogView(ctx context.Context, s domain.Session, at time.Time, productID int64) error {
	_, err := r.db.querier(ctx).ExecContext(ctx,
		`INSERT INTO viewed_product (cid, session_no, ts, pid) VALUES ($1, $2, $3, $4)`,
		s.CustomerID, s.SessionNo, at.UTC(), productID)
	if err != nil {
		return fmt.Errorf("log view of product %d: %w", productID, mapError(err))
	}
	return nil
}

// Searches returns the logged raw queries of a session, oldest first.
func (r *ActivityRepository) Searches(ctx context.Context, s domain.Session) ([]string, error) {
	rows, err := r.db.querier(ctx).QueryContext(ctx,
		`SELECT query FROM search WHERE cid = $1 AND session_no = $2 ORDER BY ts`, s.CustomerID, s.SessionNo)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", mapError(err))
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_shop/internal/domain"
)

type CartRepository struct {
	db *DB
	tx *TxManager
}

func NewCartRepository(db *DB) *CartRepository {
	return &CartRepository{db: db, tx: NewTxManager(db)}
}

// Version returns the session's cart version. Every mutation below bumps it
// in the same transaction as the change to the lines.
func (r *CartRepository) Version(ctx context.Context, s domain.Session) (int64, error) {
	query := `SELECT COALESCE(MAX(cart_version), 0) FROM sessions WHERE cid = $1 AND session_no = $2`

	var v int64
	if err := r.db.querier(ctx).QueryRowContext(ctx, query, s.CustomerID, s.SessionNo).Scan(&v); err != nil {
		return 0, fmt.Errorf("query cart version: %w", mapError(err))
	}
	return v, nil
}

// mutate runs fn and bumps the cart version atomically. Inside a caller's
// transaction both join it.
func (r *CartRepository) mutate(ctx context.Context, s domain.Session, fn func(ctx context.Context) error) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}

		query := `UPDATE sessions SET cart_version = cart_version + 1 WHERE cid = $1 AND session_no = $2`
		if _, err := r.db.querier(ctx).ExecContext(ctx, query, s.CustomerID, s.SessionNo); err != nil {
			return fmt.Errorf("bump cart version: %w", mapError(err))
		}
		return nil
	})
}

// Items returns the raw lines of a session in insertion order.
func (r *CartRepository) Items(ctx context.Context, s domain.Session) ([]domain.CartItem, error) {
	query := `SELECT pid, qty, seq FROM cart WHERE cid = $1 AND session_no = $2 ORDER BY seq`

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, s.CustomerID, s.SessionNo)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", mapError(err))
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Seq); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Lines returns the session's lines joined with the current product rows, in
// insertion order. Subtotals are left to domain.NewCart.
func (r *CartRepository) Lines(ctx context.Context, s domain.Session) ([]domain.CartLine, error) {
	query := `SELECT p.pid, p.name, p.category, p.price, p.stock_count, p.descr, c.qty
	          FROM cart c JOIN products p ON p.pid = c.pid
	          WHERE c.cid = $1 AND c.session_no = $2
	          ORDER BY c.seq`

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, s.CustomerID, s.SessionNo)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", mapError(err))
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		p := &l.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.StockCount, &p.Description, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

// Add creates a line at the end of the cart or increments an existing one,
// keeping its position.
func (r *CartRepository) Add(ctx context.Context, s domain.Session, productID int64, qty int) error {
	query := `INSERT INTO cart (cid, session_no, pid, qty, seq)
	          VALUES ($1, $2, $3, $4,
	                  (SELECT COALESCE(MAX(seq), 0) + 1 FROM cart WHERE cid = $1 AND session_no = $2))
	          ON CONFLICT (cid, session_no, pid) DO UPDATE SET qty = cart.qty + excluded.qty`

	return r.mutate(ctx, s, func(ctx context.Context) error {
		if _, err := r.db.querier(ctx).ExecContext(ctx, query, s.CustomerID, s.SessionNo, productID, qty); err != nil {
			return fmt.Errorf("add product %d to cart: %w", productID, mapError(err))
		}
		return nil
	})
}

func (r *CartRepository) Quantity(ctx context.Context, s domain.Session, productID int64) (int, error) {
	query := `SELECT qty FROM cart WHERE cid = $1 AND session_no = $2 AND pid = $3`

	var qty int
	err := r.db.querier(ctx).QueryRowContext(ctx, query, s.CustomerID, s.SessionNo, productID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("query cart line %d: %w", productID, mapError(err))
	}
	return qty, nil
}

// SetQuantity overwrites the quantity of an existing line.
func (r *CartRepository) SetQuantity(ctx context.Context, s domain.Session, productID int64, qty int) error {
	query := `UPDATE cart SET qty = $1 WHERE cid = $2 AND session_no = $3 AND pid = $4`

	return r.mutate(ctx, s, func(ctx context.Context) error {
		res, err := r.db.querier(ctx).ExecContext(ctx, query, qty, s.CustomerID, s.SessionNo, productID)
		if err != nil {
			return fmt.Errorf("update cart line %d: %w", productID, mapError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update cart line %d: %w", productID, err)
		}
		if n == 0 {
			return fmt.Errorf("cart line %d: %w", productID, domain.ErrNotFound)
		}
		return nil
	})
}

func (r *CartRepository) Remove(ctx context.Context, s domain.Session, productID int64) error {
	query := `DELETE FROM cart WHERE cid = $1 AND session_no = $2 AND pid = $3`

	return r.mutate(ctx, s, func(ctx context.Context) error {
		if _, err := r.db.querier(ctx).ExecContext(ctx, query, s.CustomerID, s.SessionNo, productID); err != nil {
			return fmt.Errorf("remove cart line %d: %w", productID, mapError(err))
		}
		return nil
	})
}

func (r *CartRepository) Clear(ctx context.Context, s domain.Session) error {
	query := `DELETE FROM cart WHERE cid = $1 AND session_no = $2`

	return r.mutate(ctx, s, func(ctx context.Context) error {
		if _, err := r.db.querier(ctx).ExecContext(ctx, query, s.CustomerID, s.SessionNo); err != nil {
			return fmt.Errorf("clear cart: %w", mapError(err))
		}
		return nil
	})
}

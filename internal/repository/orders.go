package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// NextID returns max(ono)+1, or 1 for an empty table. The primary key catches
// a concurrent allocation of the same id.
func (r *OrderRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.querier(ctx).QueryRowContext(ctx, `SELECT COALESCE(MAX(ono), 0) + 1 FROM orders`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate order id: %w", mapError(err))
	}
	return id, nil
}

// Create inserts the header and the lines of an order. Lines must carry their
// line numbers and frozen unit prices.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	q := r.db.querier(ctx)

	_, err := q.ExecContext(ctx,
		`INSERT INTO orders (ono, cid, session_no, odate, shipping_address) VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.CustomerID, o.SessionNo, o.Date.UTC(), o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("insert order %d: %w", o.ID, mapError(err))
	}

	for _, l := range o.Lines {
		_, err := q.ExecContext(ctx,
			`INSERT INTO orderlines (ono, line_no, pid, qty, uprice) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, l.LineNo, l.ProductID, l.Quantity, l.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order line %d/%d: %w", o.ID, l.LineNo, mapError(err))
		}
	}

	return nil
}

// ListByCustomer returns headers with totals, newest first; equal dates fall
// back to the higher order id.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	query := `SELECT o.ono, o.cid, o.session_no, o.odate, o.shipping_address,
	                 COALESCE(SUM(l.qty * l.uprice), 0)
	          FROM orders o LEFT JOIN orderlines l ON l.ono = o.ono
	          WHERE o.cid = $1
	          GROUP BY o.ono, o.cid, o.session_no, o.odate, o.shipping_address
	          ORDER BY o.odate DESC, o.ono DESC`

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by customer: %w", mapError(err))
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		var o domain.Order
		var total decimal.Decimal
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.SessionNo, &o.Date, &o.ShippingAddress, &total); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		o.Date = o.Date.UTC()
		o.Total = total.Round(2)
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// Get returns the header and the lines, joined with product name and category,
// ordered by line number.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	q := r.db.querier(ctx)

	var o domain.Order
	err := q.QueryRowContext(ctx,
		`SELECT ono, cid, session_no, odate, shipping_address FROM orders WHERE ono = $1`, id).
		Scan(&o.ID, &o.CustomerID, &o.SessionNo, &o.Date, &o.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("query order %d: %w", id, mapError(err))
	}

	query := `SELECT l.line_no, l.pid, p.name, p.category, l.qty, l.uprice
	          FROM orderlines l JOIN products p ON p.pid = l.pid
	          WHERE l.ono = $1
	          ORDER BY l.line_no`

	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", mapError(err))
	}
	defer rows.Close()

	o.Total = decimal.Zero
	for rows.Next() {
		l := domain.OrderLine{OrderID: id}
		if err := rows.Scan(&l.LineNo, &l.ProductID, &l.ProductName, &l.Category, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
		o.Total = o.Total.Add(l.Total())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	o.Date = o.Date.UTC()
	return &o, nil
}

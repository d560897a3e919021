package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SalesSince aggregates orders placed at or after since. AveragePerCustomer is
// left for the caller.
func (r *ReportRepository) SalesSince(ctx context.Context, since time.Time) (*domain.SalesReport, error) {
	query := `SELECT COUNT(DISTINCT o.ono), COUNT(DISTINCT l.pid), COUNT(DISTINCT o.cid), SUM(l.qty * l.uprice)
	          FROM orders o JOIN orderlines l ON l.ono = o.ono
	          WHERE o.odate >= $1`

	rep := domain.SalesReport{Since: since.UTC()}
	var total decimal.NullDecimal
	err := r.db.querier(ctx).QueryRowContext(ctx, query, since.UTC()).
		Scan(&rep.Orders, &rep.Products, &rep.Customers, &total)
	if err != nil {
		return nil, fmt.Errorf("query sales report: %w", mapError(err))
	}

	rep.TotalSales = decimal.Zero
	if total.Valid {
		rep.TotalSales = total.Decimal.Round(2)
	}
	return &rep, nil
}

// ProductCount pairs a product with a tally used for ranking.
type ProductCount struct {
	ProductID int64
	Name      string
	Count     int64
}

// OrderCounts tallies, per product, the distinct orders that contain it.
func (r *ReportRepository) OrderCounts(ctx context.Context) ([]ProductCount, error) {
	return r.counts(ctx, `SELECT p.pid, p.name, COUNT(DISTINCT l.ono)
	                      FROM orderlines l JOIN products p ON p.pid = l.pid
	                      GROUP BY p.pid, p.name`)
}

// ViewCounts tallies product views across all sessions.
func (r *ReportRepository) ViewCounts(ctx context.Context) ([]ProductCount, error) {
	return r.counts(ctx, `SELECT p.pid, p.name, COUNT(*)
	                      FROM viewed_product v JOIN products p ON p.pid = v.pid
	                      GROUP BY p.pid, p.name`)
}

func (r *ReportRepository) counts(ctx context.Context, query string) ([]ProductCount, error) {
	rows, err := r.db.querier(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query product counts: %w", mapError(err))
	}
	defer rows.Close()

	out := []ProductCount{}
	for rows.Next() {
		var c ProductCount
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan product count: %w", err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

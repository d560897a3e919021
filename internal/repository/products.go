package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

const productColumns = "pid, name, category, price, stock_count, descr"

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.StockCount, &p.Description); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE pid = $1`

	p, err := scanProduct(r.db.querier(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("query product %d: %w", id, mapError(err))
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	return r.query(ctx, builder().Select(productColumns).From("products").OrderBy("pid"))
}

// Search returns products whose name or description contains every keyword.
// Keywords are expected in lower case.
func (r *ProductRepository) Search(ctx context.Context, keywords []string) ([]*domain.Product, error) {
	lower := r.db.lower()
	where := sq.And{}
	for _, k := range keywords {
		pattern := "%" + escapeLike(k) + "%"
		where = append(where, sq.Or{
			sq.Expr(lower+"(name) LIKE ? ESCAPE '!'", pattern),
			sq.Expr(lower+"(descr) LIKE ? ESCAPE '!'", pattern),
		})
	}

	return r.query(ctx, builder().Select(productColumns).From("products").Where(where).OrderBy("pid"))
}

func (r *ProductRepository) query(ctx context.Context, b sq.SelectBuilder) ([]*domain.Product, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build products query: %w", err)
	}

	rows, err := r.db.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", mapError(err))
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// AdjustStock adds delta to the stock count in one conditional statement. A result
// below zero leaves the row unchanged and returns an InsufficientStockError.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	query := `UPDATE products SET stock_count = stock_count + $1
	          WHERE pid = $2 AND stock_count + $1 >= 0
	          RETURNING stock_count`

	var stock int
	err := r.db.querier(ctx).QueryRowContext(ctx, query, delta, id).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if err = mapError(err); !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("adjust stock of product %d: %w", id, err)
	}

	p, getErr := r.Get(ctx, id)
	if getErr != nil {
		return 0, getErr
	}
	return 0, domain.NewInsufficientStock(id, -delta, p.StockCount)
}

// DebitStock removes qty units, failing with ErrInsufficientStock when the row
// no longer holds that many.
func (r *ProductRepository) DebitStock(ctx context.Context, id int64, qty int) error {
	query := `UPDATE products SET stock_count = stock_count - $1 WHERE pid = $2 AND stock_count >= $1`

	res, err := r.db.querier(ctx).ExecContext(ctx, query, qty, id)
	if err != nil {
		return fmt.Errorf("debit stock of product %d: %w", id, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit stock of product %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("debit stock of product %d: %w", id, domain.ErrInsufficientStock)
	}
	return nil
}

func (r *ProductRepository) SetPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return r.update(ctx, id, "price", price)
}

func (r *ProductRepository) SetStock(ctx context.Context, id int64, count int) error {
	return r.update(ctx, id, "stock_count", count)
}

func (r *ProductRepository) update(ctx context.Context, id int64, column string, value any) error {
	query, args, err := builder().Update("products").Set(column, value).Where(sq.Eq{"pid": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	res, err := r.db.querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s of product %d: %w", column, id, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s of product %d: %w", column, id, err)
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

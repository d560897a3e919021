// Package inventory owns product records: stock counts and prices.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
	SetPrice(ctx context.Context, id int64, price decimal.Decimal) error
	SetStock(ctx context.Context, id int64, count int) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log.With("service", "inventory")}
}

func (s *Service) Get(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// AdjustStock changes stock by delta. A result below zero fails with an
// InsufficientStockError and leaves stock unchanged.
func (s *Service) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	stock, err := s.repo.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	s.log.InfoContext(ctx, "stock adjusted",
		slog.Int64("product_id", productID),
		slog.Int("delta", delta),
		slog.Int("stock", stock))
	return stock, nil
}

// SetStock overwrites the stock count.
func (s *Service) SetStock(ctx context.Context, productID int64, count int) error {
	if count < 0 {
		return fmt.Errorf("stock count %d: %w", count, domain.ErrInvalidValue)
	}
	if err := s.repo.SetStock(ctx, productID, count); err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	s.log.InfoContext(ctx, "stock updated", slog.Int64("product_id", productID), slog.Int("stock", count))
	return nil
}

func (s *Service) SetPrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("price %s: %w", price, domain.ErrInvalidValue)
	}
	if err := s.repo.SetPrice(ctx, productID, price); err != nil {
		return fmt.Errorf("set price: %w", err)
	}

	s.log.InfoContext(ctx, "price updated", slog.Int64("product_id", productID), slog.String("price", price.StringFixed(2)))
	return nil
}

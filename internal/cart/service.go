// Package cart manages the session-scoped shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_shop/internal/domain"
)

type Repository interface {
	Version(ctx context.Context, s domain.Session) (int64, error)
	Items(ctx context.Context, s domain.Session) ([]domain.CartItem, error)
	Add(ctx context.Context, s domain.Session, productID int64, qty int) error
	Quantity(ctx context.Context, s domain.Session, productID int64) (int, error)
	SetQuantity(ctx context.Context, s domain.Session, productID int64, qty int) error
	Remove(ctx context.Context, s domain.Session, productID int64) error
	Clear(ctx context.Context, s domain.Session) error
}

type ProductReader interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	repo     Repository
	products ProductReader
	cache    Cache
	log      *slog.Logger
	sfg      singleflight.Group // prevents cache stampede
}

func NewService(repo Repository, products ProductReader, cache Cache, log *slog.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		repo:     repo,
		products: products,
		cache:    cache,
		log:      log.With("service", "cart"),
	}
}

// AddItem puts qty units of a product in the cart, incrementing an existing
// line. Stock is not checked here; checkout validates it.
func (s *Service) AddItem(ctx context.Context, sess domain.Session, productID int64, qty int) error {
	if !sess.Valid() {
		return domain.ErrUnauthorized
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return fmt.Errorf("add item: %w", err)
	}

	if err := s.repo.Add(ctx, sess, productID, qty); err != nil {
		s.log.ErrorContext(ctx, "repo add item error", slog.Any("error", err))
		return fmt.Errorf("add item: %w", err)
	}

	s.Invalidate(ctx, sess)
	return nil
}

// SetQuantity replaces the quantity of an existing line. Unlike AddItem it
// refuses more than the current stock.
func (s *Service) SetQuantity(ctx context.Context, sess domain.Session, productID int64, qty int) error {
	if !sess.Valid() {
		return domain.ErrUnauthorized
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if _, err := s.repo.Quantity(ctx, sess, productID); err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	if qty > p.StockCount {
		return domain.NewInsufficientStock(productID, qty, p.StockCount)
	}

	if err := s.repo.SetQuantity(ctx, sess, productID, qty); err != nil {
		s.log.ErrorContext(ctx, "repo update item quantity error", slog.Any("error", err))
		return fmt.Errorf("set quantity: %w", err)
	}

	s.Invalidate(ctx, sess)
	return nil
}

// RemoveItem deletes a line. Removing an absent line is not an error.
func (s *Service) RemoveItem(ctx context.Context, sess domain.Session, productID int64) error {
	if !sess.Valid() {
		return domain.ErrUnauthorized
	}
	if err := s.repo.Remove(ctx, sess, productID); err != nil {
		s.log.ErrorContext(ctx, "repo remove item error", slog.Any("error", err))
		return fmt.Errorf("remove item: %w", err)
	}

	s.Invalidate(ctx, sess)
	return nil
}

func (s *Service) Clear(ctx context.Context, sess domain.Session) error {
	if !sess.Valid() {
		return domain.ErrUnauthorized
	}
	if err := s.repo.Clear(ctx, sess); err != nil {
		s.log.ErrorContext(ctx, "repo clear cart error", slog.Any("error", err))
		return fmt.Errorf("clear cart: %w", err)
	}

	s.Invalidate(ctx, sess)
	return nil
}

// ListItems returns the cart in insertion order. Lines come from the cache
// when possible; products are always read fresh so subtotals use current prices.
func (s *Service) ListItems(ctx context.Context, sess domain.Session) (*domain.Cart, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}

	items, err := s.items(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, it := range items {
		p, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		lines = append(lines, domain.CartLine{Product: *p, Quantity: it.Quantity})
	}

	return domain.NewCart(sess, lines), nil
}

// items serves the cached lines only while their version matches the stored
// one. The version is read before the lines, so an entry can hold lines newer
// than its version but never older.
func (s *Service) items(ctx context.Context, sess domain.Session) ([]domain.CartItem, error) {
	version, err := s.repo.Version(ctx, sess)
	if err != nil {
		return nil, err
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(fmt.Sprintf("%s:%d", sess.Key(), version), func() (any, error) {
		e, err := s.cache.Get(ctx, sess)
		switch {
		case err == nil && e.Version == version:
			return e.Items, nil
		case err != nil && !errors.Is(err, ErrCacheMiss):
			s.log.WarnContext(ctx, "cache get error", slog.Any("error", err))
		}

		items, err := s.repo.Items(ctx, sess)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, sess, Entry{Version: version, Items: items}); err != nil {
			s.log.WarnContext(ctx, "cache set error", slog.Any("error", err))
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.CartItem), nil
}

// Invalidate drops the cached lines of a session early. A failure is only
// logged: the bumped cart version already keeps the old entry from being served.
func (s *Service) Invalidate(ctx context.Context, sess domain.Session) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sess); err != nil {
		s.log.WarnContext(ctx, "cache invalidate error", slog.Any("error", err))
	}
}

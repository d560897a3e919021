// Package catalog implements keyword search over products and records what
// each session searched for and viewed.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjod/go_shop/internal/domain"
)

type ProductSearcher interface {
	Search(ctx context.Context, keywords []string) ([]*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type ActivityLog interface {
	LogSearch(ctx context.Context, s domain.Session, at time.Time, query string) error
	LogView(ctx context.Context, s domain.Session, at time.Time, productID int64) error
}

type Service struct {
	products ProductSearcher
	activity ActivityLog
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewService(products ProductSearcher, activity ActivityLog, log *slog.Logger) *Service {
	return &Service{
		products: products,
		activity: activity,
		log:      log.With("service", "catalog"),
		tracer:   otel.Tracer("github.com/fjod/go_shop/internal/catalog"),
		now:      time.Now,
	}
}

// Keywords splits a raw query on whitespace and lowercases each word.
func Keywords(raw string) []string {
	return strings.Fields(strings.ToLower(raw))
}

// Search returns the products whose name or description contains every
// keyword, ordered by id. The raw query is logged for the session.
func (s *Service) Search(ctx context.Context, sess domain.Session, raw string) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Search")
	defer span.End()

	keywords := Keywords(raw)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("search query: %w", domain.ErrInvalidValue)
	}
	span.SetAttributes(attribute.Int("keywords", len(keywords)))

	if sess.Valid() {
		if err := s.activity.LogSearch(ctx, sess, s.now(), raw); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}

	products, err := s.products.Search(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.log.DebugContext(ctx, "search",
		slog.Int("keywords", len(keywords)),
		slog.Int("results", len(products)))
	return products, nil
}

// View returns a product and records that the session looked at it.
func (s *Service) View(ctx context.Context, sess domain.Session, productID int64) (*domain.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("view product: %w", err)
	}

	if sess.Valid() {
		if err := s.activity.LogView(ctx, sess, s.now(), productID); err != nil {
			return nil, fmt.Errorf("view product: %w", err)
		}
	}
	return p, nil
}

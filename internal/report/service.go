// Package report builds the salesperson reports.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/ranking"
	"github.com/fjod/go_shop/internal/repository"
)

const TopProductsN = 3

type Repository interface {
	SalesSince(ctx context.Context, since time.Time) (*domain.SalesReport, error)
	OrderCounts(ctx context.Context) ([]repository.ProductCount, error)
	ViewCounts(ctx context.Context) ([]repository.ProductCount, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log.With("service", "report")}
}

// WeekStart is the start of the day seven days before now.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, -7).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Weekly reports sales of the last seven days.
func (s *Service) Weekly(ctx context.Context, now time.Time) (*domain.SalesReport, error) {
	since := WeekStart(now)
	rep, err := s.repo.SalesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}

	rep.AveragePerCustomer = decimal.Zero
	if rep.Customers > 0 {
		rep.AveragePerCustomer = rep.TotalSales.DivRound(decimal.NewFromInt(rep.Customers), 2)
	}

	s.log.InfoContext(ctx, "weekly report",
		slog.Time("since", since),
		slog.Int64("orders", rep.Orders),
		slog.String("total", rep.TotalSales.StringFixed(2)))
	return rep, nil
}

// TopProducts ranks products by the number of distinct orders containing them
// and by view count, keeping ties at the last place.
func (s *Service) TopProducts(ctx context.Context) (*domain.TopProducts, error) {
	byOrders, err := s.repo.OrderCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	byViews, err := s.repo.ViewCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	return &domain.TopProducts{
		ByOrders: rank(byOrders),
		ByViews:  rank(byViews),
	}, nil
}

func rank(counts []repository.ProductCount) []domain.ProductRank {
	names := make(map[int64]string, len(counts))
	entries := make([]ranking.Entry[int64], 0, len(counts))
	for _, c := range counts {
		names[c.ProductID] = c.Name
		entries = append(entries, ranking.Entry[int64]{Key: c.ProductID, Score: c.Count})
	}

	top := ranking.TopN(entries, TopProductsN)
	out := make([]domain.ProductRank, 0, len(top))
	for _, e := range top {
		out = append(out, domain.ProductRank{ProductID: e.Key, Name: names[e.Key], Score: e.Score})
	}
	return out
}

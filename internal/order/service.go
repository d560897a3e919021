// Package order turns a session's cart into an order in one transaction and
// serves the order history.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

const maxCheckoutAttempts = 3

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CartStore interface {
	Lines(ctx context.Context, s domain.Session) ([]domain.CartLine, error)
	Clear(ctx context.Context, s domain.Session) error
}

type Repository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, o *domain.Order) error
	ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
}

type StockStore interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	DebitStock(ctx context.Context, id int64, qty int) error
}

type Outbox interface {
	Insert(ctx context.Context, e *repository.OutboxEvent) error
}

// CacheInvalidator drops cached cart state once the cart is cleared by checkout.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, s domain.Session)
}

type Service struct {
	tx     TxRunner
	carts  CartStore
	orders Repository
	stock  StockStore
	outbox Outbox
	cache  CacheInvalidator
	log    *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewService(tx TxRunner, carts CartStore, orders Repository, stock StockStore, outbox Outbox,
	cache CacheInvalidator, log *slog.Logger) *Service {
	return &Service{
		tx:     tx,
		carts:  carts,
		orders: orders,
		stock:  stock,
		outbox: outbox,
		cache:  cache,
		log:    log.With("service", "order"),
		tracer: otel.Tracer("github.com/fjod/go_shop/internal/order"),
		now:    time.Now,
	}
}

// Checkout places an order for everything in the session's cart. Either the
// order is written, stock debited and the cart emptied, or nothing changes.
func (s *Service) Checkout(ctx context.Context, sess domain.Session, shippingAddress string) (*domain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout", trace.WithAttributes(
		attribute.Int64("customer_id", sess.CustomerID),
		attribute.Int64("session_no", sess.SessionNo)))
	defer span.End()

	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, fmt.Errorf("shipping address: %w", domain.ErrInvalidValue)
	}

	var receipt *domain.Receipt
	var err error
	for attempt := 1; attempt <= maxCheckoutAttempts; attempt++ {
		receipt, err = s.checkoutOnce(ctx, sess, shippingAddress)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		s.log.WarnContext(ctx, "checkout conflict, retrying",
			slog.Int("attempt", attempt),
			slog.Any("error", err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, sess)
	}

	span.SetAttributes(attribute.Int64("order_id", receipt.OrderID))
	s.log.InfoContext(ctx, "order placed",
		slog.Int64("order_id", receipt.OrderID),
		slog.Int64("customer_id", sess.CustomerID),
		slog.String("total", receipt.Total.StringFixed(2)))

	return receipt, nil
}

func (s *Service) checkoutOnce(ctx context.Context, sess domain.Session, address string) (*domain.Receipt, error) {
	var receipt *domain.Receipt

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		lines, err := s.carts.Lines(ctx, sess)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		for _, l := range lines {
			if l.Exceeds() {
				return domain.NewInsufficientStock(l.Product.ID, l.Quantity, l.Product.StockCount)
			}
		}

		id, err := s.orders.NextID(ctx)
		if err != nil {
			return err
		}

		cart := domain.NewCart(sess, lines)
		order := &domain.Order{
			ID:              id,
			CustomerID:      sess.CustomerID,
			SessionNo:       sess.SessionNo,
			Date:            s.now().UTC(),
			ShippingAddress: address,
			Total:           cart.Total,
			Lines:           make([]domain.OrderLine, 0, len(lines)),
		}
		for i, l := range lines {
			order.Lines = append(order.Lines, domain.OrderLine{
				OrderID:     id,
				LineNo:      i + 1,
				ProductID:   l.Product.ID,
				ProductName: l.Product.Name,
				Category:    l.Product.Category,
				Quantity:    l.Quantity,
				UnitPrice:   l.Product.Price,
			})
		}

		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		for _, l := range order.Lines {
			if err := s.stock.DebitStock(ctx, l.ProductID, l.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return s.insufficient(ctx, l.ProductID, l.Quantity, err)
				}
				return err
			}
		}

		if err := s.carts.Clear(ctx, sess); err != nil {
			return err
		}

		if err := s.writeEvent(ctx, order); err != nil {
			return err
		}

		receipt = &domain.Receipt{OrderID: id, Total: order.Total}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// insufficient reports the stock another writer left behind.
func (s *Service) insufficient(ctx context.Context, productID int64, qty int, cause error) error {
	p, err := s.stock.Get(ctx, productID)
	if err != nil {
		return cause
	}
	return domain.NewInsufficientStock(productID, qty, p.StockCount)
}

func (s *Service) writeEvent(ctx context.Context, o *domain.Order) error {
	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		SessionNo:  o.SessionNo,
		Total:      o.Total,
		PlacedAt:   o.Date,
		Lines:      o.Lines,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	return s.outbox.Insert(ctx, &repository.OutboxEvent{
		AggregateID: strconv.FormatInt(o.ID, 10),
		EventType:   domain.EventOrderPlaced,
		Payload:     payload,
		CreatedAt:   o.Date,
	})
}

// ListOrders returns a customer's orders, newest first, with totals.
func (s *Service) ListOrders(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// OrderDetail returns an order with its lines by line number.
func (s *Service) OrderDetail(ctx context.Context, orderID int64) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order detail: %w", err)
	}
	return o, nil
}

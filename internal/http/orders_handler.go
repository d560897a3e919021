package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/pagination"
)

type OrderService interface {
	Checkout(ctx context.Context, sess domain.Session, shippingAddress string) (*domain.Receipt, error)
	ListOrders(ctx context.Context, customerID int64) ([]*domain.Order, error)
	OrderDetail(ctx context.Context, orderID int64) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout}
}

type CheckoutRequestDTO struct {
	ShippingAddress string `json:"shipping_address"`
}

// POST /api/v1/checkout
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.orders.Checkout(ctx, sessionFrom(r.Context()), req.ShippingAddress)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// GET /api/v1/orders?page=
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(ctx, sessionFrom(r.Context()).CustomerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pagination.Paginate(orders, page, pagination.PageSize))
}

// GET /api/v1/orders/{order_id}
// Orders of other customers are reported as not found.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	o, err := h.orders.OrderDetail(ctx, orderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if o.CustomerID != sessionFrom(r.Context()).CustomerID {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, o)
}

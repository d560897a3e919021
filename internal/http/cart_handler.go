package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/domain"
)

type CartService interface {
	AddItem(ctx context.Context, sess domain.Session, productID int64, qty int) error
	SetQuantity(ctx context.Context, sess domain.Session, productID int64, qty int) error
	RemoveItem(ctx context.Context, sess domain.Session, productID int64) error
	Clear(ctx context.Context, sess domain.Session) error
	ListItems(ctx context.Context, sess domain.Session) (*domain.Cart, error)
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
}

func NewCartHandler(cart CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{cart: cart, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.respondCart(ctx, w, r, http.StatusOK)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	if err := h.cart.AddItem(ctx, sessionFrom(r.Context()), req.ProductID, qty); err != nil {
		handleError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusCreated)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.cart.SetQuantity(ctx, sessionFrom(r.Context()), productID, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusOK)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(ctx, sessionFrom(r.Context()), productID); err != nil {
		handleError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusOK)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx, sessionFrom(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}

	h.respondCart(ctx, w, r, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, status int) {
	c, err := h.cart.ListItems(ctx, sessionFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, status, c)
}

package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/pagination"
)

type CatalogService interface {
	Search(ctx context.Context, sess domain.Session, raw string) ([]*domain.Product, error)
	View(ctx context.Context, sess domain.Session, productID int64) (*domain.Product, error)
}

type ProductLister interface {
	List(ctx context.Context) ([]*domain.Product, error)
}

type ProductHandler struct {
	catalog  CatalogService
	products ProductLister
	timeout  time.Duration
}

func NewProductHandler(catalog CatalogService, products ProductLister, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: catalog, products: products, timeout: timeout}
}

// GET /api/v1/products?q=&page=
// Without q the whole catalog is listed. Searches by a logged-in customer are
// recorded against the session.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	var (
		products []*domain.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		products, err = h.catalog.Search(ctx, sessionFrom(r.Context()), q)
	} else {
		products, err = h.products.List(ctx)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pagination.Paginate(products, page, pagination.PageSize))
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	p, err := h.catalog.View(ctx, sessionFrom(r.Context()), productID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

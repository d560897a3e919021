package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
)

type InventoryService interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	SetStock(ctx context.Context, productID int64, count int) error
	SetPrice(ctx context.Context, productID int64, price decimal.Decimal) error
}

type ReportService interface {
	Weekly(ctx context.Context, now time.Time) (*domain.SalesReport, error)
	TopProducts(ctx context.Context) (*domain.TopProducts, error)
}

// AdminHandler serves the salesperson endpoints.
type AdminHandler struct {
	inventory InventoryService
	reports   ReportService
	timeout   time.Duration
	now       func() time.Time
}

func NewAdminHandler(inventory InventoryService, reports ReportService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{inventory: inventory, reports: reports, timeout: timeout, now: time.Now}
}

type UpdatePriceRequestDTO struct {
	Price decimal.Decimal `json:"price"`
}

type UpdateStockRequestDTO struct {
	StockCount *int `json:"stock_count"`
}

// GET /api/v1/admin/products/{product_id}
func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	p, err := h.inventory.Get(ctx, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// PUT /api/v1/admin/products/{product_id}/price
func (h *AdminHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	var req UpdatePriceRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.inventory.SetPrice(ctx, productID, req.Price); err != nil {
		handleError(w, r, err)
		return
	}
	h.respondProduct(ctx, w, r, productID)
}

// PUT /api/v1/admin/products/{product_id}/stock
func (h *AdminHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}

	var req UpdateStockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StockCount == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "stock_count is required")
		return
	}

	if err := h.inventory.SetStock(ctx, productID, *req.StockCount); err != nil {
		handleError(w, r, err)
		return
	}
	h.respondProduct(ctx, w, r, productID)
}

// GET /api/v1/admin/reports/weekly
func (h *AdminHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rep, err := h.reports.Weekly(ctx, h.now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// GET /api/v1/admin/reports/top-products
func (h *AdminHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	top, err := h.reports.TopProducts(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}

func (h *AdminHandler) respondProduct(ctx context.Context, w http.ResponseWriter, r *http.Request, productID int64) {
	p, err := h.inventory.Get(ctx, productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Package http exposes the shop over a JSON REST API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/domain"
)

type TokenManager interface {
	TokenIssuer
	TokenValidator
}

type ProductAdmin interface {
	InventoryService
	ProductLister
}

// Deps are the services behind the API.
type Deps struct {
	Auth      AuthService
	Sessions  SessionChecker
	Tokens    TokenManager
	Catalog   CatalogService
	Inventory ProductAdmin
	Cart      CartService
	Orders    OrderService
	Reports   ReportService
}

func NewRouter(d Deps, cfg config.ServerConfig, log *slog.Logger) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.Tokens, cfg.RequestTimeout)
	productHandler := NewProductHandler(d.Catalog, d.Inventory, cfg.RequestTimeout)
	cartHandler := NewCartHandler(d.Cart, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(d.Orders, cfg.RequestTimeout)
	adminHandler := NewAdminHandler(d.Inventory, d.Reports, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(LimitBody(cfg.MaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(d.Tokens, d.Sessions))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.With(RequireRole(domain.RoleCustomer)).Post("/logout", authHandler.Logout)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{product_id}", productHandler.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleCustomer))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})

			r.Post("/checkout", ordersHandler.Checkout)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{order_id}", ordersHandler.GetOrder)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleSalesperson))

			r.Get("/products/{product_id}", adminHandler.GetProduct)
			r.Put("/products/{product_id}/price", adminHandler.UpdatePrice)
			r.Put("/products/{product_id}/stock", adminHandler.UpdateStock)
			r.Get("/reports/weekly", adminHandler.WeeklyReport)
			r.Get("/reports/top-products", adminHandler.TopProducts)
		})
	})

	return otelhttp.NewHandler(r, "shop-api")
}

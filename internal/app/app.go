// Package app wires repositories, caches and services into one graph shared
// by the terminal UI and the HTTP API.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/catalog"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/inventory"
	"github.com/fjod/go_shop/internal/order"
	"github.com/fjod/go_shop/internal/report"
	"github.com/fjod/go_shop/internal/repository"
)

type Services struct {
	DB        *repository.DB
	Outbox    *repository.OutboxRepository
	Tokens    *auth.JWTManager
	Auth      *auth.Service
	Catalog   *catalog.Service
	Inventory *inventory.Service
	Cart      *cart.Service
	Orders    *order.Service
	Reports   *report.Service
}

func NewServices(db *repository.DB, cache cart.Cache, authCfg config.AuthConfig, log *slog.Logger) *Services {
	tx := repository.NewTxManager(db)
	products := repository.NewProductRepository(db)
	carts := repository.NewCartRepository(db)
	outbox := repository.NewOutboxRepository(db)

	cartSvc := cart.NewService(carts, products, cache, log)

	return &Services{
		DB:        db,
		Outbox:    outbox,
		Tokens:    auth.NewJWTManager(authCfg.JWTSecret, authCfg.JWTIssuer, authCfg.AccessTokenTTL),
		Auth:      auth.NewService(repository.NewUserRepository(db), repository.NewSessionRepository(db), tx, log),
		Catalog:   catalog.NewService(products, repository.NewActivityRepository(db), log),
		Inventory: inventory.NewService(products, log),
		Cart:      cartSvc,
		Orders:    order.NewService(tx, carts, repository.NewOrderRepository(db), products, outbox, cartSvc, log),
		Reports:   report.NewService(repository.NewReportRepository(db), log),
	}
}

// OpenDatabase connects and migrates the relational store.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("database ready", slog.String("driver", db.Driver()))
	return db, nil
}

// OpenCartCache returns the Redis cart cache behind a circuit breaker, or a
// no-op cache when Redis is not configured.
func OpenCartCache(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (cart.Cache, func(), error) {
	if !cfg.Enabled() {
		log.Info("redis not configured, cart cache disabled")
		return cart.NopCache{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded", slog.String("addr", cfg.Addr))

	cache := cart.NewBreakerCache(cart.NewRedisCache(client, cfg.CacheTTL), log)
	return cache, func() { _ = client.Close() }, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_shop/internal/app"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/events"
	h "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, closeCache, err := app.OpenCartCache(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeCache()

	svc := app.NewServices(db, cache, cfg.Auth, log)

	if cfg.Auth.SalesPassword != "" {
		if err := svc.Auth.EnsureSalesperson(ctx, cfg.Auth.SalesUserID, cfg.Auth.SalesPassword); err != nil {
			return err
		}
	}

	router := h.NewRouter(h.Deps{
		Auth:      svc.Auth,
		Sessions:  svc.Auth,
		Tokens:    svc.Tokens,
		Catalog:   svc.Catalog,
		Inventory: svc.Inventory,
		Cart:      svc.Cart,
		Orders:    svc.Orders,
		Reports:   svc.Reports,
	}, cfg.Server, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("api starting", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Kafka.Enabled() {
		publisher := events.NewOutboxPublisher(svc.Outbox,
			events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
			cfg.Kafka.PollInterval, cfg.Kafka.BatchSize, log)
		defer publisher.Close()

		invalidator := events.NewCartCacheInvalidator(
			events.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID),
			cache, log)
		defer invalidator.Close()

		g.Go(func() error { return publisher.Run(gctx) })
		g.Go(func() error { return invalidator.Run(gctx) })
	} else {
		log.Info("kafka not configured, order events stay in the outbox")
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("api exited")
	return nil
}

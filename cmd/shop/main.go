package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_shop/internal/app"
	"github.com/fjod/go_shop/internal/cli"
	"github.com/fjod/go_shop/internal/config"
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
		log.Error("shop stopped", slog.Any("error", err))
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

	shop := cli.NewShop(cli.NewTerminal(os.Stdin, os.Stdout), cli.ShopDeps{
		Auth:      svc.Auth,
		Catalog:   svc.Catalog,
		Cart:      svc.Cart,
		Orders:    svc.Orders,
		Inventory: svc.Inventory,
		Reports:   svc.Reports,
	}, log)

	return shop.Run(ctx)
}

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dwikikusuma/storefront/internal/bootstrap"
	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "cartrepair", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	deps, closeDeps, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer closeDeps()

	interval := cfg.RepairInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	w := &worker{carts: deps.Carts, owners: deps.ShopperCarts, log: log}

	log.Info("cart repair starting", slog.Duration("interval", interval))
	w.run(ctx, interval)
	log.Info("bye")
}

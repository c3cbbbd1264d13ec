package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

type repairer interface {
	Repair(ctx context.Context, owner domain.Owner) (int, error)
}

type ownerLister interface {
	Owners(ctx context.Context) ([]domain.Owner, error)
}

type worker struct {
	carts  repairer
	owners ownerLister
	log    *slog.Logger
}

// run sweeps immediately, then once per interval until ctx is done.
func (w *worker) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sweep repairs every persisted cart once. A failing cart is logged and
// skipped.
func (w *worker) sweep(ctx context.Context) (carts, merged int) {
	owners, err := w.owners.Owners(ctx)
	if err != nil {
		w.log.ErrorContext(ctx, "list carts failed", slog.Any("err", err))
		return 0, 0
	}

	for _, owner := range owners {
		if ctx.Err() != nil {
			break
		}
		n, err := w.carts.Repair(ctx, owner)
		if err != nil {
			w.log.ErrorContext(ctx, "repair failed", slog.String("owner", owner.String()), slog.Any("err", err))
			continue
		}
		carts++
		merged += n
	}

	w.log.InfoContext(ctx, "repair sweep done", slog.Int("carts", carts), slog.Int("merged", merged))
	return carts, merged
}

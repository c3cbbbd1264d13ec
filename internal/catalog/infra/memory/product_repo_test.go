package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/shopspring/decimal"
)

func TestList(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	phones := &domain.Category{ID: "c1", Slug: "phones"}
	repo := NewProductRepo(
		domain.Product{ID: "a", Price: decimal.NewFromInt(100), Category: phones, CreatedAt: now},
		domain.Product{ID: "b", Price: decimal.NewFromInt(500), Category: phones, CreatedAt: now.Add(time.Hour)},
		domain.Product{ID: "c", Price: decimal.NewFromInt(900), CreatedAt: now.Add(2 * time.Hour)},
	)
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		got, _ := repo.List(ctx, app.ListFilter{})
		if len(got) != 3 || got[0].ID != "c" || got[2].ID != "a" {
			t.Fatalf("got %v", ids(got))
		}
	})

	t.Run("category", func(t *testing.T) {
		got, _ := repo.List(ctx, app.ListFilter{CategorySlug: "phones"})
		if len(got) != 2 {
			t.Fatalf("got %v", ids(got))
		}
	})

	t.Run("inclusive price range", func(t *testing.T) {
		got, _ := repo.List(ctx, app.ListFilter{
			MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(100)),
			MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(500)),
		})
		if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
			t.Fatalf("got %v", ids(got))
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, _ := repo.List(ctx, app.ListFilter{Limit: 1})
		if len(got) != 1 || got[0].ID != "c" {
			t.Fatalf("got %v", ids(got))
		}
	})
}

func TestGetMissing(t *testing.T) {
	repo := NewProductRepo()
	if _, err := repo.Get(context.Background(), "x"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetBySlug(context.Background(), "x"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func ids(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
)

// ProductRepo keeps the catalog in memory. It backs dev runs seeded from a
// fixture file and tests.
type ProductRepo struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewProductRepo(products ...domain.Product) *ProductRepo {
	r := &ProductRepo{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepo) Put(p domain.Product) {
	r.mu.Lock()
	r.products[p.ID] = p
	r.mu.Unlock()
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, app.ErrNotFound
}

func (r *ProductRepo) List(ctx context.Context, filter app.ListFilter) ([]domain.Product, error) {
	r.mu.RLock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.CategorySlug != "" && (p.Category == nil || p.Category.Slug != filter.CategorySlug) {
			continue
		}
		if filter.MinPrice.Valid && p.Price.LessThan(filter.MinPrice.Decimal) {
			continue
		}
		if filter.MaxPrice.Valid && p.Price.GreaterThan(filter.MaxPrice.Decimal) {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

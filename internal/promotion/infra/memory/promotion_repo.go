package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dwikikusuma/storefront/internal/promotion/domain"
)

// PromotionRepo returns promotions in insertion order, which stands in for
// the database's query order.
type PromotionRepo struct {
	mu     sync.RWMutex
	promos []domain.Promotion
}

func NewPromotionRepo(promos ...domain.Promotion) *PromotionRepo {
	return &PromotionRepo{promos: append([]domain.Promotion(nil), promos...)}
}

func (r *PromotionRepo) Add(p domain.Promotion) {
	r.mu.Lock()
	r.promos = append(r.promos, p)
	r.mu.Unlock()
}

func (r *PromotionRepo) ListActive(ctx context.Context, now time.Time, productID string) ([]domain.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Promotion, 0, len(r.promos))
	for _, p := range r.promos {
		if !p.ActiveAt(now) {
			continue
		}
		if productID != "" && p.ProductID != productID && !p.IsGlobal {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

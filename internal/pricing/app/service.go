package app

import (
	"context"
	"fmt"

	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/pricing/domain"
	promotion "github.com/dwikikusuma/storefront/internal/promotion/domain"
)

type PromotionSource interface {
	ActiveFor(ctx context.Context, productID string) (promotion.ActiveSet, error)
}

// Service resolves prices against the promotions active at call time.
type Service struct {
	resolver *Resolver
	promos   PromotionSource
}

func NewService(resolver *Resolver, promos PromotionSource) *Service {
	return &Service{resolver: resolver, promos: promos}
}

func (s *Service) Resolve(ctx context.Context, sel catalog.Selection) (domain.Resolution, error) {
	set, err := s.promos.ActiveFor(ctx, sel.Product.ID)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("load promotions for %s: %w", sel.Product.ID, err)
	}
	return s.resolver.ResolveSelection(sel, set)
}

// ResolveWith prices sel against an already loaded promotion set, e.g. one
// snapshot shared by a whole listing page.
func (s *Service) ResolveWith(sel catalog.Selection, set promotion.ActiveSet) (domain.Resolution, error) {
	return s.resolver.ResolveSelection(sel, set)
}

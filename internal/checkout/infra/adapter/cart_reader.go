package adapter

import (
	"context"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	cart "github.com/dwikikusuma/storefront/internal/cart/domain"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
)

type CartServiceReader struct {
	svc *cartapp.Service
}

func NewCartServiceReader(svc *cartapp.Service) *CartServiceReader {
	return &CartServiceReader{svc: svc}
}

func (r *CartServiceReader) GetCart(ctx context.Context, scope, ownerID string) ([]checkoutapp.CartItem, error) {
	c, err := r.svc.GetCart(ctx, cart.Owner{Scope: cart.Scope(scope), ID: ownerID})
	if err != nil {
		return nil, err
	}

	items := make([]checkoutapp.CartItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, checkoutapp.CartItem{
			ProductID:       l.Key.ProductID,
			VariationID:     l.Key.VariationID,
			ColorID:         l.Key.ColorID,
			Name:            l.ProductName,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			FinalUnitPrice:  l.FinalUnitPrice,
			DiscountPercent: l.DiscountPercent,
		})
	}
	return items, nil
}

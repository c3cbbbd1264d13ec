package adapter

import (
	"context"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	pricingapp "github.com/dwikikusuma/storefront/internal/pricing/app"
)

// PriceServiceReader resolves the current price of a configuration from the
// live catalog and the promotions active now.
type PriceServiceReader struct {
	catalog *catalogapp.Service
	pricing *pricingapp.Service
}

func NewPriceServiceReader(catalog *catalogapp.Service, pricing *pricingapp.Service) *PriceServiceReader {
	return &PriceServiceReader{catalog: catalog, pricing: pricing}
}

func (r *PriceServiceReader) CurrentPrice(ctx context.Context, productID, variationID, colorID string) (checkoutapp.Price, error) {
	sel, err := r.catalog.Select(ctx, productID, variationID, colorID)
	if err != nil {
		return checkoutapp.Price{}, err
	}
	res, err := r.pricing.Resolve(ctx, sel)
	if err != nil {
		return checkoutapp.Price{}, err
	}

	return checkoutapp.Price{
		UnitPrice:       res.UnitPrice,
		FinalUnitPrice:  res.FinalUnitPrice,
		DiscountPercent: res.DiscountPercent,
	}, nil
}

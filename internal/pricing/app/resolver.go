package app

import (
	"errors"
	"fmt"

	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/pricing/domain"
	promotion "github.com/dwikikusuma/storefront/internal/promotion/domain"
	"github.com/dwikikusuma/storefront/pkg/clock"
	"github.com/shopspring/decimal"
)

// ErrUnresolvedPrice means the catalog handed over a configuration that has
// no usable price. It points at bad catalog data, not at the shopper.
var ErrUnresolvedPrice = errors.New("unresolved price")

var hundred = decimal.NewFromInt(100)

// Resolver computes unit prices. It does no I/O; promotions are passed in and
// re-checked against the injected clock.
type Resolver struct {
	clock  clock.Clock
	places int32
}

// NewResolver rounds final prices to places fractional digits (0 rounds to
// whole currency units).
func NewResolver(clk clock.Clock, places int32) *Resolver {
	if clk == nil {
		clk = clock.System{}
	}
	if places < 0 {
		places = 0
	}
	return &Resolver{clock: clk, places: places}
}

func (r *Resolver) Resolve(item catalog.Product, variation *catalog.Variation, color *catalog.Color, itemPromo, globalPromo *promotion.Promotion) (domain.Resolution, error) {
	return r.ResolveSelection(
		catalog.Selection{Product: item, Variation: variation, Color: color},
		promotion.ActiveSet{Item: itemPromo, Global: globalPromo},
	)
}

func (r *Resolver) ResolveSelection(sel catalog.Selection, promos promotion.ActiveSet) (domain.Resolution, error) {
	unit, err := unitPrice(sel)
	if err != nil {
		return domain.Resolution{}, err
	}

	res := domain.Resolution{UnitPrice: unit, FinalUnitPrice: unit}
	if !sel.SaleEligible() {
		return res, nil
	}

	promo := r.pick(promos)
	if promo == nil || !promo.DiscountPercent.IsPositive() {
		return res, nil
	}

	pct := decimal.Min(promo.DiscountPercent, hundred)
	res.FinalUnitPrice = unit.Mul(hundred.Sub(pct)).Div(hundred).Round(r.places)
	res.DiscountPercent = decimal.NewNullDecimal(pct)
	res.PromotionID = promo.ID
	return res, nil
}

// pick gives the item-scoped promotion precedence. Only one ever applies.
func (r *Resolver) pick(promos promotion.ActiveSet) *promotion.Promotion {
	now := r.clock.Now()
	if promos.Item != nil && promos.Item.ActiveAt(now) {
		return promos.Item
	}
	if promos.Global != nil && promos.Global.ActiveAt(now) {
		return promos.Global
	}
	return nil
}

// unitPrice applies color > variation > item. A color price of zero or less
// defers to the variation or item.
func unitPrice(sel catalog.Selection) (decimal.Decimal, error) {
	p := sel.Product
	var price decimal.Decimal
	switch {
	case sel.Color != nil && sel.Color.Price.IsPositive():
		if sel.Color.ProductID != "" && sel.Color.ProductID != p.ID {
			return decimal.Zero, fmt.Errorf("%w: color %s is not part of product %s", ErrUnresolvedPrice, sel.Color.ID, p.ID)
		}
		price = sel.Color.Price
	case sel.Variation != nil:
		if sel.Variation.ProductID != "" && sel.Variation.ProductID != p.ID {
			return decimal.Zero, fmt.Errorf("%w: variation %s is not part of product %s", ErrUnresolvedPrice, sel.Variation.ID, p.ID)
		}
		price = sel.Variation.Price
	default:
		price = p.Price
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: product %s resolves to %s", ErrUnresolvedPrice, p.ID, price)
	}
	return price, nil
}

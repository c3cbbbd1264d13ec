package domain

import "github.com/shopspring/decimal"

// Resolution is the per-unit price of one configuration. DiscountPercent is
// null when no sale applies, which is distinct from a 0% sale.
type Resolution struct {
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	FinalUnitPrice  decimal.Decimal     `json:"final_unit_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	PromotionID     string              `json:"promotion_id,omitempty"`
}

func (r Resolution) Discounted() bool {
	return r.DiscountPercent.Valid
}

func (r Resolution) LineTotal(quantity int) decimal.Decimal {
	return r.FinalUnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Savings is what the shopper saves per unit.
func (r Resolution) Savings() decimal.Decimal {
	return r.UnitPrice.Sub(r.FinalUnitPrice)
}

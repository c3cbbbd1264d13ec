package domain

import "github.com/shopspring/decimal"

type QuoteLine struct {
	ProductID       string              `json:"product_id"`
	VariationID     string              `json:"variation_id,omitempty"`
	ColorID         string              `json:"color_id,omitempty"`
	Name            string              `json:"name"`
	Quantity        int                 `json:"quantity"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	FinalUnitPrice  decimal.Decimal     `json:"final_unit_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	LineTotal       decimal.Decimal     `json:"line_total"`
	// Stale is set when the price stored on the cart line no longer matches
	// the current resolution. Totals always use the current price.
	Stale bool `json:"stale"`
}

type Quote struct {
	Currency string          `json:"currency"`
	Lines    []QuoteLine     `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Savings  decimal.Decimal `json:"savings"`
	Repriced bool            `json:"repriced"`
}

func (q Quote) HasStale() bool {
	for _, l := range q.Lines {
		if l.Stale {
			return true
		}
	}
	return false
}

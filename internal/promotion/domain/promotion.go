package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion is a percentage-off sale, either tied to one product or
// store-wide (IsGlobal).
type Promotion struct {
	ID              string
	ProductID       string
	IsGlobal        bool
	DiscountPercent decimal.Decimal
	IsActive        bool
	EndDate         time.Time
	CreatedAt       time.Time
}

// ActiveAt reports whether the promotion applies at now. A promotion that
// ends exactly at now has expired.
func (p Promotion) ActiveAt(now time.Time) bool {
	return p.IsActive && p.EndDate.After(now)
}

// ActiveSet is the pair of promotions considered for one price resolution.
type ActiveSet struct {
	Item   *Promotion
	Global *Promotion
}

// Pick returns the first active promotion targeting productID and the first
// active global promotion, in the order given. Duplicates are not merged.
func Pick(promos []Promotion, productID string, now time.Time) ActiveSet {
	var set ActiveSet
	for i := range promos {
		p := promos[i]
		if !p.ActiveAt(now) {
			continue
		}
		if set.Item == nil && productID != "" && p.ProductID == productID {
			set.Item = &p
		}
		if set.Global == nil && p.IsGlobal {
			set.Global = &p
		}
		if set.Item != nil && set.Global != nil {
			break
		}
	}
	return set
}

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrVariationNotFound = errors.New("variation not found")
	ErrColorNotFound     = errors.New("color not found")
)

type Category struct {
	ID   string
	Slug string
	Name string
}

// Product is a catalog item. Variations and Colors are ordered by SortOrder.
type Product struct {
	ID            string
	Slug          string
	Name          string
	Description   string
	Category      *Category
	Price         decimal.Decimal
	Images        []string
	StockQuantity int
	IsFeatured    bool
	Variations    []Variation
	Colors        []Color
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Variation struct {
	ID            string
	ProductID     string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	ApplySale     bool
	SortOrder     int
}

// Color overrides the variation and item price only when Price is positive.
type Color struct {
	ID            string
	ProductID     string
	Name          string
	ColorCode     string
	Price         decimal.Decimal
	StockQuantity int
	ApplySale     bool
	SortOrder     int
}

func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New("product id is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %s: price cannot be negative", p.ID)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("product %s: stock cannot be negative", p.ID)
	}
	for _, v := range p.Variations {
		if v.ProductID != p.ID {
			return fmt.Errorf("variation %s belongs to %s, not %s", v.ID, v.ProductID, p.ID)
		}
		if v.Price.IsNegative() || v.StockQuantity < 0 {
			return fmt.Errorf("variation %s: price and stock cannot be negative", v.ID)
		}
	}
	for _, c := range p.Colors {
		if c.ProductID != p.ID {
			return fmt.Errorf("color %s belongs to %s, not %s", c.ID, c.ProductID, p.ID)
		}
		if c.StockQuantity < 0 {
			return fmt.Errorf("color %s: stock cannot be negative", c.ID)
		}
	}
	return nil
}

// Selection is one purchasable configuration of a product.
type Selection struct {
	Product   Product
	Variation *Variation
	Color     *Color
}

// Select picks the variation and color by id. Empty ids select nothing.
func (p Product) Select(variationID, colorID string) (Selection, error) {
	sel := Selection{Product: p}
	if variationID != "" {
		for i := range p.Variations {
			if p.Variations[i].ID == variationID {
				v := p.Variations[i]
				sel.Variation = &v
				break
			}
		}
		if sel.Variation == nil {
			return Selection{}, fmt.Errorf("%w: %s", ErrVariationNotFound, variationID)
		}
	}
	if colorID != "" {
		for i := range p.Colors {
			if p.Colors[i].ID == colorID {
				c := p.Colors[i]
				sel.Color = &c
				break
			}
		}
		if sel.Color == nil {
			return Selection{}, fmt.Errorf("%w: %s", ErrColorNotFound, colorID)
		}
	}
	return sel, nil
}

// DefaultSelection is what a product page shows first: the first variation
// and the first color, when the product has any.
func (p Product) DefaultSelection() Selection {
	sel := Selection{Product: p}
	if len(p.Variations) > 0 {
		v := p.Variations[0]
		sel.Variation = &v
	}
	if len(p.Colors) > 0 {
		c := p.Colors[0]
		sel.Color = &c
	}
	return sel
}

func (s Selection) VariationID() string {
	if s.Variation == nil {
		return ""
	}
	return s.Variation.ID
}

func (s Selection) ColorID() string {
	if s.Color == nil {
		return ""
	}
	return s.Color.ID
}

// Stock is the stock of the most specific selected configuration.
func (s Selection) Stock() int {
	switch {
	case s.Color != nil:
		return s.Color.StockQuantity
	case s.Variation != nil:
		return s.Variation.StockQuantity
	default:
		return s.Product.StockQuantity
	}
}

// SaleEligible reports whether promotions may discount this configuration.
// A bare item is always eligible.
func (s Selection) SaleEligible() bool {
	switch {
	case s.Color != nil:
		return s.Color.ApplySale
	case s.Variation != nil:
		return s.Variation.ApplySale
	default:
		return true
	}
}

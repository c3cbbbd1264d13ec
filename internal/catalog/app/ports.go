package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/shopspring/decimal"
)

// ListFilter narrows a product listing. Zero values mean "no constraint".
type ListFilter struct {
	CategorySlug string
	MinPrice     decimal.NullDecimal
	MaxPrice     decimal.NullDecimal
	Limit        int
}

type ProductRepo interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
}

package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/analytics"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	pricing "github.com/dwikikusuma/storefront/internal/pricing/domain"
)

// CartStore holds the lines of carts in one scope. Implementations must make
// IncrementLine relative to the stored quantity, not to a value read earlier.
type CartStore interface {
	Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error)
	FindLine(ctx context.Context, owner domain.Owner, key domain.LineKey) (domain.CartLine, bool, error)
	InsertLine(ctx context.Context, owner domain.Owner, line domain.CartLine) error
	IncrementLine(ctx context.Context, owner domain.Owner, key domain.LineKey, delta int) error
	// SetQuantity returns ErrLineNotFound when no line has key.
	SetQuantity(ctx context.Context, owner domain.Owner, key domain.LineKey, quantity int) error
	DeleteLine(ctx context.Context, owner domain.Owner, key domain.LineKey) error
	// ReplaceLines swaps the whole cart in one step.
	ReplaceLines(ctx context.Context, owner domain.Owner, lines []domain.CartLine) error
	// FoldDuplicates merges lines sharing a key into the oldest of them
	// against the current stored state and returns how many were folded.
	// Lines it does not fold are left untouched.
	FoldDuplicates(ctx context.Context, owner domain.Owner) (int, error)
	Clear(ctx context.Context, owner domain.Owner) error
}

type CatalogSelector interface {
	Select(ctx context.Context, productID, variationID, colorID string) (catalog.Selection, error)
}

type PriceResolver interface {
	Resolve(ctx context.Context, sel catalog.Selection) (pricing.Resolution, error)
}

type EventPublisher = analytics.Publisher

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/storefront/internal/checkout/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type CartReader interface {
	GetCart(ctx context.Context, scope, ownerID string) ([]CartItem, error)
}

// CartItem is a cart line as checkout sees it, with the price stored when
// the line was created.
type CartItem struct {
	ProductID       string
	VariationID     string
	ColorID         string
	Name            string
	Quantity        int
	UnitPrice       decimal.Decimal
	FinalUnitPrice  decimal.Decimal
	DiscountPercent decimal.NullDecimal
}

type PriceReader interface {
	CurrentPrice(ctx context.Context, productID, variationID, colorID string) (Price, error)
}

type Price struct {
	UnitPrice       decimal.Decimal
	FinalUnitPrice  decimal.Decimal
	DiscountPercent decimal.NullDecimal
}

type Options struct {
	Currency      string
	Reprice       bool
	MaxConcurrent int
}

type Service struct {
	Cart   CartReader
	Prices PriceReader

	currency      string
	reprice       bool
	maxConcurrent int
}

func NewService(cart CartReader, prices PriceReader, opts Options) *Service {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}

	return &Service{
		Cart:          cart,
		Prices:        prices,
		currency:      opts.Currency,
		reprice:       opts.Reprice,
		maxConcurrent: opts.MaxConcurrent,
	}
}

var ErrEmptyCart = errors.New("cart is empty")

func (s *Service) Quote(ctx context.Context, scope, ownerID string) (domain.Quote, error) {
	items, err := s.Cart.GetCart(ctx, scope, ownerID)
	if err != nil {
		return domain.Quote{}, err
	}

	if len(items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		g.Go(func() error {
			it := items[idx]
			if it.Quantity <= 0 {
				return fmt.Errorf("quantity must be greater than zero: %d", it.Quantity)
			}

			price := Price{
				UnitPrice:       it.UnitPrice,
				FinalUnitPrice:  it.FinalUnitPrice,
				DiscountPercent: it.DiscountPercent,
			}
			stale := false
			if s.reprice {
				current, err := s.Prices.CurrentPrice(ctx, it.ProductID, it.VariationID, it.ColorID)
				if err != nil {
					return fmt.Errorf("failed to reprice product %s: %w", it.ProductID, err)
				}
				stale = !current.UnitPrice.Equal(it.UnitPrice) || !current.FinalUnitPrice.Equal(it.FinalUnitPrice)
				price = current
			}

			lines[idx] = domain.QuoteLine{
				ProductID:       it.ProductID,
				VariationID:     it.VariationID,
				ColorID:         it.ColorID,
				Name:            it.Name,
				Quantity:        it.Quantity,
				UnitPrice:       price.UnitPrice,
				FinalUnitPrice:  price.FinalUnitPrice,
				DiscountPercent: price.DiscountPercent,
				LineTotal:       price.FinalUnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
				Stale:           stale,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	subtotal, savings := decimal.Zero, decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.LineTotal)
		savings = savings.Add(line.UnitPrice.Sub(line.FinalUnitPrice).Mul(qty))
	}

	return domain.Quote{
		Currency: s.currency,
		Lines:    lines,
		Subtotal: subtotal,
		Savings:  savings,
		Repriced: s.reprice,
	}, nil
}

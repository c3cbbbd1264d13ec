package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dwikikusuma/storefront/internal/analytics"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	pricing "github.com/dwikikusuma/storefront/internal/pricing/app"
	pricingdomain "github.com/dwikikusuma/storefront/internal/pricing/domain"
	"github.com/dwikikusuma/storefront/pkg/clock"
	"github.com/google/uuid"
)

// Stores routes each owner scope to its CartStore.
type Stores struct {
	Guest   CartStore
	Shopper CartStore
}

func (s Stores) For(owner domain.Owner) (CartStore, error) {
	var store CartStore
	switch owner.Scope {
	case domain.ScopeGuest:
		store = s.Guest
	case domain.ScopeShopper:
		store = s.Shopper
	}
	if store == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoStore, owner.Scope)
	}
	return store, nil
}

type AddLineRequest struct {
	ProductID   string
	VariationID string
	ColorID     string
	Quantity    int
}

type Options struct {
	Currency string
	Clock    clock.Clock
	Events   EventPublisher
	Logger   *slog.Logger
}

// Service reconciles cart lines. The identity and merge rules are the same
// for every scope; only the store differs.
type Service struct {
	stores   Stores
	catalog  CatalogSelector
	prices   PriceResolver
	events   EventPublisher
	clock    clock.Clock
	log      *slog.Logger
	currency string
}

func NewService(stores Stores, catalog CatalogSelector, prices PriceResolver, opts Options) *Service {
	s := &Service{
		stores:   stores,
		catalog:  catalog,
		prices:   prices,
		events:   opts.Events,
		clock:    opts.Clock,
		log:      opts.Logger,
		currency: opts.Currency,
	}
	if s.events == nil {
		s.events = analytics.Discard{}
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func KeyOf(sel catalog.Selection) domain.LineKey {
	return domain.LineKey{
		ProductID:   sel.Product.ID,
		VariationID: sel.VariationID(),
		ColorID:     sel.ColorID(),
	}
}

// NewLine builds a line for sel with its display and price snapshot.
func NewLine(sel catalog.Selection, res pricingdomain.Resolution, quantity int, id string, clk clock.Clock) domain.CartLine {
	snap := domain.Snapshot{
		ProductName:     sel.Product.Name,
		ProductImage:    sel.Product.PrimaryImage(),
		UnitPrice:       res.UnitPrice,
		FinalUnitPrice:  res.FinalUnitPrice,
		DiscountPercent: res.DiscountPercent,
	}
	if sel.Variation != nil {
		snap.VariationName = sel.Variation.Name
	}
	if sel.Color != nil {
		snap.ColorName = sel.Color.Name
		snap.ColorCode = sel.Color.ColorCode
	}
	return domain.CartLine{
		ID:       id,
		Key:      KeyOf(sel),
		Quantity: quantity,
		Snapshot: snap,
		AddedAt:  clk.Now(),
	}
}

// AddLine adds quantity units of a configuration. Re-adding an identity that
// is already in the cart increases its quantity; the stored snapshot stays.
// The price is resolved on every add for the add_to_cart event.
func (s *Service) AddLine(ctx context.Context, owner domain.Owner, req AddLineRequest) (domain.Cart, error) {
	if req.Quantity <= 0 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	store, err := s.storeFor(owner)
	if err != nil {
		return domain.Cart{}, err
	}

	sel, err := s.catalog.Select(ctx, strings.TrimSpace(req.ProductID), req.VariationID, req.ColorID)
	if err != nil {
		return domain.Cart{}, err
	}
	key := KeyOf(sel)

	// Read the candidate right before writing so concurrent adds of the same
	// identity mostly land on the increment path.
	existing, found, err := store.FindLine(ctx, owner, key)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("find cart line: %w", err)
	}

	have := 0
	if found {
		have = existing.Quantity
	}
	if stock := sel.Stock(); have+req.Quantity > stock {
		return domain.Cart{}, &StockError{Available: max(stock-have, 0)}
	}

	res, err := s.prices.Resolve(ctx, sel)
	if err != nil {
		if errors.Is(err, pricing.ErrUnresolvedPrice) {
			s.log.ErrorContext(ctx, "price resolution fault",
				slog.String("owner", owner.String()),
				slog.String("line", key.String()),
				slog.Any("err", err))
		}
		return domain.Cart{}, err
	}

	if found {
		err := store.IncrementLine(ctx, owner, key, req.Quantity)
		switch {
		case errors.Is(err, ErrLineNotFound):
			// Removed by another request since FindLine.
			found = false
		case err != nil:
			return domain.Cart{}, fmt.Errorf("increment cart line: %w", err)
		}
	}
	if !found {
		line := NewLine(sel, res, req.Quantity, uuid.NewString(), s.clock)
		if err := store.InsertLine(ctx, owner, line); err != nil {
			return domain.Cart{}, fmt.Errorf("insert cart line: %w", err)
		}
	}

	// The event carries the price in effect now, even when the stored line
	// keeps its older snapshot.
	s.events.Publish(ctx, analytics.Event{
		Name:        analytics.EventAddToCart,
		ProductID:   sel.Product.ID,
		ProductName: sel.Product.Name,
		Value:       res.FinalUnitPrice,
		Quantity:    req.Quantity,
		Currency:    s.currency,
		Scope:       string(owner.Scope),
	})

	return s.GetCart(ctx, owner)
}

// SetQuantity is an explicit quantity edit. Zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, owner domain.Owner, key domain.LineKey, quantity int) (domain.Cart, error) {
	if quantity < 0 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveLine(ctx, owner, key)
	}
	store, err := s.storeFor(owner)
	if err != nil {
		return domain.Cart{}, err
	}

	sel, err := s.catalog.Select(ctx, key.ProductID, key.VariationID, key.ColorID)
	if err != nil {
		return domain.Cart{}, err
	}
	if stock := sel.Stock(); quantity > stock {
		return domain.Cart{}, &StockError{Available: stock}
	}

	if err := store.SetQuantity(ctx, owner, key, quantity); err != nil {
		return domain.Cart{}, err
	}
	return s.GetCart(ctx, owner)
}

// RemoveLine deletes the line at key. Absent keys are not an error.
func (s *Service) RemoveLine(ctx context.Context, owner domain.Owner, key domain.LineKey) (domain.Cart, error) {
	store, err := s.storeFor(owner)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := store.DeleteLine(ctx, owner, key); err != nil {
		return domain.Cart{}, fmt.Errorf("delete cart line: %w", err)
	}
	return s.GetCart(ctx, owner)
}

func (s *Service) Clear(ctx context.Context, owner domain.Owner) error {
	store, err := s.storeFor(owner)
	if err != nil {
		return err
	}
	return store.Clear(ctx, owner)
}

// GetCart loads the cart and repairs duplicate identities left by racing
// writers before returning it.
func (s *Service) GetCart(ctx context.Context, owner domain.Owner) (domain.Cart, error) {
	store, err := s.storeFor(owner)
	if err != nil {
		return domain.Cart{}, err
	}
	cart, _, err := s.load(ctx, store, owner)
	return cart, err
}

// Repair folds duplicate lines in the owner's cart and reports how many
// were folded away.
func (s *Service) Repair(ctx context.Context, owner domain.Owner) (int, error) {
	store, err := s.storeFor(owner)
	if err != nil {
		return 0, err
	}
	_, merged, err := s.load(ctx, store, owner)
	return merged, err
}

func (s *Service) ItemCount(ctx context.Context, owner domain.Owner) (int, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return 0, err
	}
	return cart.ItemCount(), nil
}

func (s *Service) load(ctx context.Context, store CartStore, owner domain.Owner) (domain.Cart, int, error) {
	lines, err := store.Lines(ctx, owner)
	if err != nil {
		return domain.Cart{}, 0, fmt.Errorf("load cart: %w", err)
	}
	cart, merged := domain.Cart{Owner: owner, Lines: lines}.Deduplicated()
	if merged == 0 {
		return cart, 0, nil
	}

	// The copy read above may already be stale; the store folds against
	// what it holds now and the cart is read again afterwards.
	merged, err = store.FoldDuplicates(ctx, owner)
	if err != nil {
		return domain.Cart{}, 0, fmt.Errorf("repair cart: %w", err)
	}
	s.log.WarnContext(ctx, "duplicate cart lines folded",
		slog.String("owner", owner.String()),
		slog.Int("merged", merged))

	lines, err = store.Lines(ctx, owner)
	if err != nil {
		return domain.Cart{}, 0, fmt.Errorf("load cart: %w", err)
	}
	cart, _ = domain.Cart{Owner: owner, Lines: lines}.Deduplicated()
	return cart, merged, nil
}

func (s *Service) storeFor(owner domain.Owner) (CartStore, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.stores.For(owner)
}

package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dwikikusuma/storefront/internal/analytics"
	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/cart/infra/memory"
	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	catalogmem "github.com/dwikikusuma/storefront/internal/catalog/infra/memory"
	pricing "github.com/dwikikusuma/storefront/internal/pricing/app"
	promoapp "github.com/dwikikusuma/storefront/internal/promotion/app"
	promotion "github.com/dwikikusuma/storefront/internal/promotion/domain"
	promomem "github.com/dwikikusuma/storefront/internal/promotion/infra/memory"
	"github.com/dwikikusuma/storefront/pkg/clock"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func abaya() catalog.Product {
	return catalog.Product{
		ID:            "p1",
		Slug:          "silk-abaya",
		Name:          "Silk Abaya",
		Price:         dec("1000"),
		Images:        []string{"abaya-1.jpg", "abaya-2.jpg"},
		StockQuantity: 50,
		Variations: []catalog.Variation{
			{ID: "v1", ProductID: "p1", Name: "Large", Price: dec("1200"), StockQuantity: 20, ApplySale: true},
		},
		Colors: []catalog.Color{
			{ID: "c1", ProductID: "p1", Name: "Midnight", ColorCode: "#000022", StockQuantity: 5, ApplySale: true},
			{ID: "c2", ProductID: "p1", Name: "Sand", ColorCode: "#c2b280", StockQuantity: 5, ApplySale: true},
		},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recorder) Publish(_ context.Context, ev analytics.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

type fixture struct {
	svc    *app.Service
	guest  *memory.Store
	shop   *memory.Store
	events *recorder
}

func newFixture(t *testing.T, promos ...promotion.Promotion) fixture {
	t.Helper()
	f := fixture{guest: memory.NewStore(), shop: memory.NewStore(), events: &recorder{}}
	f.svc = newService(app.Stores{Guest: f.guest, Shopper: f.shop}, f.events, promos...)
	return f
}

func newService(stores app.Stores, events app.EventPublisher, promos ...promotion.Promotion) *app.Service {
	clk := clock.Fixed(now)
	products := catalogapp.NewService(catalogmem.NewProductRepo(abaya()))
	prices := pricing.NewService(
		pricing.NewResolver(clk, 0),
		promoapp.NewService(promomem.NewPromotionRepo(promos...), clk),
	)
	return app.NewService(stores, products, prices, app.Options{
		Currency: "AED",
		Clock:    clk,
		Events:   events,
		Logger:   logger.Discard(),
	})
}

func tenPercentOff() promotion.Promotion {
	return promotion.Promotion{
		ID: "sale-1", ProductID: "p1", DiscountPercent: dec("10"),
		IsActive: true, EndDate: now.Add(24 * time.Hour),
	}
}

func TestAddLine_MergesSameIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, tenPercentOff())
	owner := domain.Guest("sess-1")
	req := app.AddLineRequest{ProductID: "p1", VariationID: "v1", ColorID: "c1", Quantity: 2}

	if _, err := f.svc.AddLine(ctx, owner, req); err != nil {
		t.Fatalf("first add: %v", err)
	}
	req.Quantity = 1
	cart, err := f.svc.AddLine(ctx, owner, req)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	l := cart.Lines[0]
	if l.Quantity != 3 {
		t.Fatalf("quantity %d, want 3", l.Quantity)
	}
	if !l.UnitPrice.Equal(dec("1200")) || !l.FinalUnitPrice.Equal(dec("1080")) {
		t.Fatalf("snapshot %s/%s, want 1200/1080", l.UnitPrice, l.FinalUnitPrice)
	}
	if !l.LineTotal().Equal(dec("3240")) {
		t.Fatalf("line total %s, want 3240", l.LineTotal())
	}
	if l.ProductImage != "abaya-1.jpg" || l.VariationName != "Large" || l.ColorName != "Midnight" {
		t.Fatalf("unexpected display snapshot: %+v", l.Snapshot)
	}

	if len(f.events.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(f.events.events))
	}
	for _, ev := range f.events.events {
		if ev.Name != analytics.EventAddToCart || !ev.Value.Equal(dec("1080")) || ev.Currency != "AED" {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestAddLine_SnapshotSurvivesPromotionEnd(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(now)
	promos := promomem.NewPromotionRepo(promotion.Promotion{
		ID: "sale-1", ProductID: "p1", DiscountPercent: dec("10"),
		IsActive: true, EndDate: now.Add(time.Hour),
	})
	prices := pricing.NewService(pricing.NewResolver(clk, 0), promoapp.NewService(promos, clk))
	store := memory.NewStore()
	events := &recorder{}
	svc := app.NewService(app.Stores{Guest: store},
		catalogapp.NewService(catalogmem.NewProductRepo(abaya())), prices,
		app.Options{Clock: clk, Events: events, Logger: logger.Discard()})

	owner := domain.Guest("sess-1")
	req := app.AddLineRequest{ProductID: "p1", VariationID: "v1", Quantity: 1}
	if _, err := svc.AddLine(ctx, owner, req); err != nil {
		t.Fatalf("add: %v", err)
	}
	clk.Advance(2 * time.Hour)
	cart, err := svc.AddLine(ctx, owner, req)
	if err != nil {
		t.Fatalf("add after expiry: %v", err)
	}
	if got := cart.Lines[0].FinalUnitPrice; !got.Equal(dec("1080")) {
		t.Fatalf("snapshot refreshed to %s, want 1080", got)
	}
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("quantity %d, want 2", cart.Lines[0].Quantity)
	}
	if len(events.events) != 2 {
		t.Fatalf("got %d events, want 2", len(events.events))
	}
	if got := events.events[1].Value; !got.Equal(dec("1200")) {
		t.Fatalf("re-add event value %s, want current price 1200", got)
	}
}

// vanishingStore drops the line between FindLine and IncrementLine, as a
// remove from another tab would.
type vanishingStore struct {
	*memory.Store
}

func (v vanishingStore) IncrementLine(ctx context.Context, owner domain.Owner, key domain.LineKey, delta int) error {
	if err := v.Store.DeleteLine(ctx, owner, key); err != nil {
		return err
	}
	return v.Store.IncrementLine(ctx, owner, key, delta)
}

func TestAddLine_LineRemovedBeforeIncrement(t *testing.T) {
	ctx := context.Background()
	store := vanishingStore{Store: memory.NewStore()}
	svc := newService(app.Stores{Guest: store}, &recorder{})
	owner := domain.Guest("sess-1")
	req := app.AddLineRequest{ProductID: "p1", ColorID: "c1", Quantity: 1}

	if _, err := svc.AddLine(ctx, owner, req); err != nil {
		t.Fatalf("first add: %v", err)
	}
	req.Quantity = 2
	cart, err := svc.AddLine(ctx, owner, req)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("lines %+v, want one line of quantity 2", cart.Lines)
	}
}

func TestAddLine_DistinctIdentities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := domain.Shopper("u1")

	for _, req := range []app.AddLineRequest{
		{ProductID: "p1", VariationID: "v1", ColorID: "c1", Quantity: 1},
		{ProductID: "p1", VariationID: "v1", ColorID: "c2", Quantity: 1},
		{ProductID: "p1", Quantity: 1},
	} {
		if _, err := f.svc.AddLine(ctx, owner, req); err != nil {
			t.Fatalf("add %+v: %v", req, err)
		}
	}
	cart, err := f.svc.GetCart(ctx, owner)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(cart.Lines))
	}
	if got := cart.Lines[2].FinalUnitPrice; !got.Equal(dec("1000")) {
		t.Fatalf("bare item price %s, want 1000", got)
	}
	if n, _ := f.svc.ItemCount(ctx, owner); n != 3 {
		t.Fatalf("item count %d, want 3", n)
	}
	if lines, _ := f.guest.Lines(ctx, domain.Guest("u1")); len(lines) != 0 {
		t.Fatal("shopper lines leaked into guest store")
	}
}

func TestAddLine_Rejections(t *testing.T) {
	ctx := context.Background()
	owner := domain.Guest("sess-1")

	tests := []struct {
		name string
		req  app.AddLineRequest
		want error
	}{
		{"zero quantity", app.AddLineRequest{ProductID: "p1", Quantity: 0}, app.ErrInvalidQuantity},
		{"negative quantity", app.AddLineRequest{ProductID: "p1", Quantity: -2}, app.ErrInvalidQuantity},
		{"unknown product", app.AddLineRequest{ProductID: "nope", Quantity: 1}, catalogapp.ErrNotFound},
		{"unknown color", app.AddLineRequest{ProductID: "p1", ColorID: "c9", Quantity: 1}, catalog.ErrColorNotFound},
		{"over color stock", app.AddLineRequest{ProductID: "p1", VariationID: "v1", ColorID: "c1", Quantity: 6}, app.ErrStockExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.AddLine(ctx, owner, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err %v, want %v", err, tt.want)
			}
			if len(f.events.events) != 0 {
				t.Fatal("rejected add published an event")
			}
		})
	}

	t.Run("stock counts existing quantity", func(t *testing.T) {
		f := newFixture(t)
		req := app.AddLineRequest{ProductID: "p1", VariationID: "v1", ColorID: "c1", Quantity: 4}
		if _, err := f.svc.AddLine(ctx, owner, req); err != nil {
			t.Fatalf("first add: %v", err)
		}
		req.Quantity = 2
		_, err := f.svc.AddLine(ctx, owner, req)
		var se *app.StockError
		if !errors.As(err, &se) {
			t.Fatalf("err %v, want StockError", err)
		}
		if se.Available != 1 || se.Error() != "only 1 left" {
			t.Fatalf("available %d (%q), want 1", se.Available, se.Error())
		}
	})

	t.Run("invalid owner", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddLine(ctx, domain.Guest(" "), app.AddLineRequest{ProductID: "p1", Quantity: 1})
		if !errors.Is(err, domain.ErrInvalidOwner) {
			t.Fatalf("err %v, want ErrInvalidOwner", err)
		}
	})
}

func TestSetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := domain.Guest("sess-1")
	key := domain.LineKey{ProductID: "p1", VariationID: "v1", ColorID: "c1"}

	if _, err := f.svc.AddLine(ctx, owner, app.AddLineRequest{ProductID: "p1", VariationID: "v1", ColorID: "c1", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := f.svc.SetQuantity(ctx, owner, key, 4)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if cart.Lines[0].Quantity != 4 {
		t.Fatalf("quantity %d, want 4", cart.Lines[0].Quantity)
	}

	if _, err := f.svc.SetQuantity(ctx, owner, key, 6); !errors.Is(err, app.ErrStockExceeded) {
		t.Fatalf("err %v, want ErrStockExceeded", err)
	}
	if _, err := f.svc.SetQuantity(ctx, owner, key, -1); !errors.Is(err, app.ErrInvalidQuantity) {
		t.Fatalf("err %v, want ErrInvalidQuantity", err)
	}
	missing := domain.LineKey{ProductID: "p1", ColorID: "c2"}
	if _, err := f.svc.SetQuantity(ctx, owner, missing, 1); !errors.Is(err, app.ErrLineNotFound) {
		t.Fatalf("err %v, want ErrLineNotFound", err)
	}

	cart, err = f.svc.RemoveLine(ctx, owner, missing)
	if err != nil {
		t.Fatalf("removing absent key: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("absent remove changed cart: %d lines", len(cart.Lines))
	}

	cart, err = f.svc.SetQuantity(ctx, owner, key, 0)
	if err != nil {
		t.Fatalf("SetQuantity 0: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("zero quantity kept the line")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := domain.Shopper("u1")
	if _, err := f.svc.AddLine(ctx, owner, app.AddLineRequest{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.svc.Clear(ctx, owner); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := f.svc.ItemCount(ctx, owner); n != 0 {
		t.Fatalf("item count %d after clear", n)
	}
}

func TestGetCart_RepairsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := domain.Shopper("u1")
	key := domain.LineKey{ProductID: "p1", VariationID: "v1"}
	dup := []domain.CartLine{
		{ID: "a", Key: key, Quantity: 2, Snapshot: domain.Snapshot{FinalUnitPrice: dec("1080")}},
		{ID: "b", Key: domain.LineKey{ProductID: "p1"}, Quantity: 1},
		{ID: "c", Key: key, Quantity: 1, Snapshot: domain.Snapshot{FinalUnitPrice: dec("1200")}},
	}
	if err := f.shop.ReplaceLines(ctx, owner, dup); err != nil {
		t.Fatalf("seed: %v", err)
	}

	merged, err := f.svc.Repair(ctx, owner)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if merged != 1 {
		t.Fatalf("merged %d, want 1", merged)
	}
	lines, _ := f.shop.Lines(ctx, owner)
	if len(lines) != 2 {
		t.Fatalf("stored %d lines, want 2", len(lines))
	}
	if lines[0].ID != "a" || lines[0].Quantity != 3 || !lines[0].FinalUnitPrice.Equal(dec("1080")) {
		t.Fatalf("first occurrence not kept: %+v", lines[0])
	}

	if merged, _ := f.svc.Repair(ctx, owner); merged != 0 {
		t.Fatalf("second repair merged %d", merged)
	}
}

// racingStore lets another writer add a line after the service has read the
// cart but before the duplicates are folded.
type racingStore struct {
	*memory.Store
	before func()
}

func (r *racingStore) FoldDuplicates(ctx context.Context, owner domain.Owner) (int, error) {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return r.Store.FoldDuplicates(ctx, owner)
}

func TestRepair_KeepsLinesWrittenDuringRepair(t *testing.T) {
	ctx := context.Background()
	owner := domain.Shopper("u1")
	midnight := domain.LineKey{ProductID: "p1", ColorID: "c1"}
	sand := domain.LineKey{ProductID: "p1", ColorID: "c2"}

	store := &racingStore{Store: memory.NewStore()}
	svc := newService(app.Stores{Guest: memory.NewStore(), Shopper: store}, &recorder{})

	dup := []domain.CartLine{
		{ID: "a", Key: midnight, Quantity: 1},
		{ID: "b", Key: midnight, Quantity: 1},
	}
	if err := store.ReplaceLines(ctx, owner, dup); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store.before = func() {
		if err := store.InsertLine(ctx, owner, domain.CartLine{ID: "c", Key: sand, Quantity: 1}); err != nil {
			t.Errorf("concurrent insert: %v", err)
		}
		if err := store.IncrementLine(ctx, owner, midnight, 2); err != nil {
			t.Errorf("concurrent increment: %v", err)
		}
	}

	merged, err := svc.Repair(ctx, owner)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if merged != 1 {
		t.Fatalf("merged %d, want 1", merged)
	}

	cart, err := svc.GetCart(ctx, owner)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(cart.Lines), cart.Lines)
	}
	if l, ok := cart.Find(midnight); !ok || l.Quantity != 4 {
		t.Fatalf("midnight line %+v, want quantity 4", l)
	}
	if l, ok := cart.Find(sand); !ok || l.Quantity != 1 {
		t.Fatalf("line added during repair was lost: %+v", cart.Lines)
	}
}

func TestAddLine_ConcurrentSameIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := domain.Guest("sess-1")
	req := app.AddLineRequest{ProductID: "p1", VariationID: "v1", Quantity: 1}

	const N = 20
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			_, err := f.svc.AddLine(gctx, owner, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddLine failed: %v", err)
	}

	cart, err := f.svc.GetCart(ctx, owner)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != N {
		t.Fatalf("quantity %d, want %d", cart.Lines[0].Quantity, N)
	}
}

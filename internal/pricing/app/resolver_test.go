package app

import (
	"errors"
	"testing"
	"time"

	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	promotion "github.com/dwikikusuma/storefront/internal/promotion/domain"
	"github.com/dwikikusuma/storefront/pkg/clock"
	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func promo(id string, pct int64, global bool, end time.Time) *promotion.Promotion {
	p := &promotion.Promotion{ID: id, IsGlobal: global, DiscountPercent: d(pct), IsActive: true, EndDate: end}
	if !global {
		p.ProductID = "p1"
	}
	return p
}

func item() catalog.Product {
	return catalog.Product{ID: "p1", Price: d(1000), StockQuantity: 5}
}

func TestResolveUnitPricePrecedence(t *testing.T) {
	r := NewResolver(clock.Fixed(now), 0)
	v := &catalog.Variation{ID: "v", ProductID: "p1", Price: d(1200), ApplySale: true}

	t.Run("bare item uses base price, no sale", func(t *testing.T) {
		res, err := r.Resolve(item(), nil, nil, nil, nil)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !res.UnitPrice.Equal(d(1000)) || !res.FinalUnitPrice.Equal(res.UnitPrice) {
			t.Fatalf("got %+v", res)
		}
		if res.DiscountPercent.Valid {
			t.Fatal("discount must be absent, not zero")
		}
	})

	t.Run("variation overrides item", func(t *testing.T) {
		res, _ := r.Resolve(item(), v, nil, nil, nil)
		if !res.UnitPrice.Equal(d(1200)) {
			t.Fatalf("unit = %s", res.UnitPrice)
		}
	})

	t.Run("positive color overrides variation and item", func(t *testing.T) {
		c := &catalog.Color{ID: "c", ProductID: "p1", Price: d(1350), ApplySale: true}
		res, _ := r.Resolve(item(), v, c, nil, nil)
		if !res.UnitPrice.Equal(d(1350)) {
			t.Fatalf("unit = %s", res.UnitPrice)
		}
		res, _ = r.Resolve(item(), nil, c, nil, nil)
		if !res.UnitPrice.Equal(d(1350)) {
			t.Fatalf("unit = %s", res.UnitPrice)
		}
	})

	t.Run("zero color price defers", func(t *testing.T) {
		c := &catalog.Color{ID: "c", ProductID: "p1", Price: decimal.Zero, ApplySale: true}
		res, _ := r.Resolve(item(), v, c, nil, nil)
		if !res.UnitPrice.Equal(d(1200)) {
			t.Fatalf("unit = %s", res.UnitPrice)
		}
		res, _ = r.Resolve(item(), nil, c, nil, nil)
		if !res.UnitPrice.Equal(d(1000)) {
			t.Fatalf("unit = %s", res.UnitPrice)
		}
	})

	t.Run("negative color price defers", func(t *testing.T) {
		c := &catalog.Color{ID: "c", ProductID: "p1", Price: d(-5), ApplySale: true}
		res, _ := r.Resolve(item(), v, c, nil, nil)
		if !res.UnitPrice.Equal(d(1200)) {
			t.Fatalf("unit = %s", res.UnitPrice)
		}
	})
}

func TestResolveDiscounts(t *testing.T) {
	r := NewResolver(clock.Fixed(now), 0)
	end := now.Add(time.Hour)

	t.Run("item promotion beats global", func(t *testing.T) {
		res, _ := r.Resolve(item(), nil, nil, promo("i", 10, false, end), promo("g", 30, true, end))
		if !res.FinalUnitPrice.Equal(d(900)) || !res.DiscountPercent.Decimal.Equal(d(10)) || res.PromotionID != "i" {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("global applies alone", func(t *testing.T) {
		res, _ := r.Resolve(item(), nil, nil, nil, promo("g", 30, true, end))
		if !res.FinalUnitPrice.Equal(d(700)) || res.PromotionID != "g" {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("expired item promotion falls back to global", func(t *testing.T) {
		res, _ := r.Resolve(item(), nil, nil, promo("i", 10, false, now), promo("g", 30, true, end))
		if res.PromotionID != "g" {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("end date equal to now is inactive", func(t *testing.T) {
		res, _ := r.Resolve(item(), nil, nil, nil, promo("g", 30, true, now))
		if res.DiscountPercent.Valid || !res.FinalUnitPrice.Equal(d(1000)) {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("zero and negative percent mean no discount", func(t *testing.T) {
		for _, pct := range []int64{0, -15} {
			res, _ := r.Resolve(item(), nil, nil, promo("i", pct, false, end), nil)
			if res.DiscountPercent.Valid || !res.FinalUnitPrice.Equal(d(1000)) {
				t.Fatalf("pct %d: got %+v", pct, res)
			}
		}
	})

	t.Run("percent above 100 is capped", func(t *testing.T) {
		res, _ := r.Resolve(item(), nil, nil, promo("i", 150, false, end), nil)
		if !res.FinalUnitPrice.IsZero() || !res.DiscountPercent.Decimal.Equal(d(100)) {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("apply_sale false on variation blocks discount", func(t *testing.T) {
		v := &catalog.Variation{ID: "v", ProductID: "p1", Price: d(1200), ApplySale: false}
		res, _ := r.Resolve(item(), v, nil, promo("i", 10, false, end), nil)
		if res.DiscountPercent.Valid || !res.FinalUnitPrice.Equal(d(1200)) {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("color flag wins over variation flag", func(t *testing.T) {
		v := &catalog.Variation{ID: "v", ProductID: "p1", Price: d(1200), ApplySale: false}
		c := &catalog.Color{ID: "c", ProductID: "p1", ApplySale: true}
		res, _ := r.Resolve(item(), v, c, promo("i", 10, false, end), nil)
		if !res.FinalUnitPrice.Equal(d(1080)) {
			t.Fatalf("got %+v", res)
		}

		c.ApplySale = false
		v.ApplySale = true
		res, _ = r.Resolve(item(), v, c, promo("i", 10, false, end), nil)
		if res.DiscountPercent.Valid {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("rounding to whole units", func(t *testing.T) {
		p := catalog.Product{ID: "p1", Price: decimal.RequireFromString("999")}
		res, _ := r.Resolve(p, nil, nil, promo("i", 15, false, end), nil)
		// 999 * 0.85 = 849.15
		if !res.FinalUnitPrice.Equal(d(849)) {
			t.Fatalf("final = %s", res.FinalUnitPrice)
		}
		p.Price = d(5)
		res, _ = r.Resolve(p, nil, nil, promo("i", 50, false, end), nil)
		// 2.5 rounds half away from zero
		if !res.FinalUnitPrice.Equal(d(3)) {
			t.Fatalf("final = %s", res.FinalUnitPrice)
		}
	})

	t.Run("rounding to fils", func(t *testing.T) {
		r2 := NewResolver(clock.Fixed(now), 2)
		p := catalog.Product{ID: "p1", Price: decimal.RequireFromString("999")}
		res, _ := r2.Resolve(p, nil, nil, promo("i", 15, false, end), nil)
		if !res.FinalUnitPrice.Equal(decimal.RequireFromString("849.15")) {
			t.Fatalf("final = %s", res.FinalUnitPrice)
		}
	})
}

func TestResolveWorkedExample(t *testing.T) {
	r := NewResolver(clock.Fixed(now), 0)
	v := &catalog.Variation{ID: "256", ProductID: "p1", Name: "256GB", Price: d(1200), ApplySale: true}
	c := &catalog.Color{ID: "black", ProductID: "p1", Name: "Black", Price: decimal.Zero, ApplySale: true}

	res, err := r.Resolve(item(), v, c, promo("i", 10, false, now.Add(time.Hour)), nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.UnitPrice.Equal(d(1200)) || !res.FinalUnitPrice.Equal(d(1080)) || !res.DiscountPercent.Decimal.Equal(d(10)) {
		t.Fatalf("got %+v", res)
	}
	if !res.LineTotal(3).Equal(d(3240)) || !res.Savings().Equal(d(120)) {
		t.Fatalf("line total %s savings %s", res.LineTotal(3), res.Savings())
	}
}

func TestResolveUnresolved(t *testing.T) {
	r := NewResolver(clock.Fixed(now), 0)

	p := item()
	p.Price = d(-1)
	if _, err := r.Resolve(p, nil, nil, nil, nil); !errors.Is(err, ErrUnresolvedPrice) {
		t.Fatalf("expected ErrUnresolvedPrice, got %v", err)
	}

	foreign := &catalog.Variation{ID: "v", ProductID: "other", Price: d(10)}
	if _, err := r.Resolve(item(), foreign, nil, nil, nil); !errors.Is(err, ErrUnresolvedPrice) {
		t.Fatalf("expected ErrUnresolvedPrice, got %v", err)
	}
}

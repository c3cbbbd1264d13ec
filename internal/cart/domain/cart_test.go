package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func line(key LineKey, qty int, price int64) CartLine {
	return CartLine{
		ID:       key.String(),
		Key:      key,
		Quantity: qty,
		Snapshot: Snapshot{
			UnitPrice:      decimal.NewFromInt(price),
			FinalUnitPrice: decimal.NewFromInt(price),
		},
	}
}

var (
	black = LineKey{ProductID: "p1", VariationID: "256", ColorID: "black"}
	white = LineKey{ProductID: "p1", VariationID: "256", ColorID: "white"}
	bare  = LineKey{ProductID: "p1"}
)

func TestWithAddedMergesSameIdentity(t *testing.T) {
	c := Cart{Owner: Guest("s1")}
	c = c.WithAdded(line(black, 2, 1080))
	c = c.WithAdded(line(black, 1, 999))

	if len(c.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(c.Lines))
	}
	if c.Lines[0].Quantity != 3 {
		t.Fatalf("quantity = %d", c.Lines[0].Quantity)
	}
	if !c.Lines[0].FinalUnitPrice.Equal(decimal.NewFromInt(1080)) {
		t.Fatalf("snapshot was refreshed: %s", c.Lines[0].FinalUnitPrice)
	}
}

func TestWithAddedDistinctIdentities(t *testing.T) {
	c := Cart{}.WithAdded(line(black, 1, 10)).WithAdded(line(white, 1, 10)).WithAdded(line(bare, 1, 10))
	if len(c.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(c.Lines))
	}
}

func TestWithAddedDoesNotMutateInput(t *testing.T) {
	orig := Cart{}.WithAdded(line(black, 1, 10))
	_ = orig.WithAdded(line(black, 5, 10))
	if orig.Lines[0].Quantity != 1 {
		t.Fatalf("input cart mutated: %d", orig.Lines[0].Quantity)
	}
}

func TestWithout(t *testing.T) {
	c := Cart{}.WithAdded(line(black, 1, 10)).WithAdded(line(white, 1, 10))

	c2 := c.Without(white)
	if len(c2.Lines) != 1 || c2.Lines[0].Key != black {
		t.Fatalf("got %+v", c2.Lines)
	}

	c3 := c2.Without(white)
	if len(c3.Lines) != 1 || c3.Lines[0] != c2.Lines[0] {
		t.Fatal("removing an absent key changed the cart")
	}
}

func TestWithQuantity(t *testing.T) {
	c := Cart{}.WithAdded(line(black, 1, 10))

	c2, ok := c.WithQuantity(black, 7)
	if !ok || c2.Lines[0].Quantity != 7 {
		t.Fatalf("ok=%v lines=%+v", ok, c2.Lines)
	}

	c3, ok := c.WithQuantity(black, 0)
	if !ok || len(c3.Lines) != 0 {
		t.Fatalf("zero quantity should remove, ok=%v lines=%+v", ok, c3.Lines)
	}

	if _, ok := c.WithQuantity(white, 2); ok {
		t.Fatal("expected missing line")
	}
}

func TestDeduplicated(t *testing.T) {
	c := Cart{Lines: []CartLine{line(black, 2, 1080), line(white, 1, 10), line(black, 3, 1200)}}
	d, merged := c.Deduplicated()
	if merged != 1 || len(d.Lines) != 2 {
		t.Fatalf("merged=%d lines=%d", merged, len(d.Lines))
	}
	if d.Lines[0].Quantity != 5 || !d.Lines[0].FinalUnitPrice.Equal(decimal.NewFromInt(1080)) {
		t.Fatalf("got %+v", d.Lines[0])
	}
}

func TestTotals(t *testing.T) {
	c := Cart{}.WithAdded(line(black, 3, 1080)).WithAdded(line(white, 1, 20))
	if c.ItemCount() != 4 {
		t.Fatalf("count = %d", c.ItemCount())
	}
	if !c.Subtotal().Equal(decimal.NewFromInt(3260)) {
		t.Fatalf("subtotal = %s", c.Subtotal())
	}
}

func TestOwnerValidate(t *testing.T) {
	if err := Guest("s").Validate(); err != nil {
		t.Fatalf("guest: %v", err)
	}
	if err := Shopper(" ").Validate(); err != ErrInvalidOwner {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
	if err := (Owner{Scope: "x", ID: "1"}).Validate(); err != ErrInvalidOwner {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
}

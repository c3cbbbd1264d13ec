package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Scope string

const (
	// ScopeGuest carts live in a session store and have no server identity.
	ScopeGuest Scope = "guest"
	// ScopeShopper carts are persisted and keyed by shopper id.
	ScopeShopper Scope = "shopper"
)

var ErrInvalidOwner = errors.New("invalid cart owner")

// Owner says whose cart an operation targets. ID is the guest session id or
// the shopper id depending on Scope.
type Owner struct {
	Scope Scope
	ID    string
}

func Guest(sessionID string) Owner { return Owner{Scope: ScopeGuest, ID: sessionID} }

func Shopper(shopperID string) Owner { return Owner{Scope: ScopeShopper, ID: shopperID} }

func (o Owner) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrInvalidOwner
	}
	if o.Scope != ScopeGuest && o.Scope != ScopeShopper {
		return ErrInvalidOwner
	}
	return nil
}

func (o Owner) String() string { return string(o.Scope) + ":" + o.ID }

// LineKey is the composite identity of a cart line. Empty VariationID or
// ColorID means none was selected.
type LineKey struct {
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
	ColorID     string `json:"color_id,omitempty"`
}

func (k LineKey) String() string {
	return k.ProductID + "|" + k.VariationID + "|" + k.ColorID
}

// Snapshot holds what was true about the line when it was created. It is
// not refreshed on later adds.
type Snapshot struct {
	ProductName     string              `json:"product_name"`
	ProductImage    string              `json:"product_image,omitempty"`
	VariationName   string              `json:"variation_name,omitempty"`
	ColorName       string              `json:"color_name,omitempty"`
	ColorCode       string              `json:"color_code,omitempty"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	FinalUnitPrice  decimal.Decimal     `json:"final_unit_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
}

type CartLine struct {
	ID       string  `json:"id"`
	Key      LineKey `json:"key"`
	Quantity int     `json:"quantity"`
	Snapshot
	AddedAt time.Time `json:"added_at"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.FinalUnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered set of lines. No two lines share a LineKey once the
// cart has passed through the operations below.
type Cart struct {
	Owner Owner      `json:"-"`
	Lines []CartLine `json:"lines"`
}

func (c Cart) Find(key LineKey) (CartLine, bool) {
	if i := c.index(key); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// WithAdded merges line into the cart. A line with the same key gets its
// quantity increased and keeps its own snapshot; otherwise line is appended.
func (c Cart) WithAdded(line CartLine) Cart {
	out := c.clone()
	if i := out.index(line.Key); i >= 0 {
		out.Lines[i].Quantity += line.Quantity
		return out
	}
	out.Lines = append(out.Lines, line)
	return out
}

// WithQuantity sets the quantity of the line at key. A quantity of zero or
// less removes it. The bool is false when there is no such line.
func (c Cart) WithQuantity(key LineKey, quantity int) (Cart, bool) {
	i := c.index(key)
	if i < 0 {
		return c, false
	}
	if quantity <= 0 {
		return c.Without(key), true
	}
	out := c.clone()
	out.Lines[i].Quantity = quantity
	return out, true
}

// Without removes the line at key. Removing an absent key is a no-op.
func (c Cart) Without(key LineKey) Cart {
	out := Cart{Owner: c.Owner, Lines: make([]CartLine, 0, len(c.Lines))}
	for _, l := range c.Lines {
		if l.Key != key {
			out.Lines = append(out.Lines, l)
		}
	}
	return out
}

// Deduplicated folds lines sharing a key into the first of them, summing
// quantities. It returns how many lines were folded away.
func (c Cart) Deduplicated() (Cart, int) {
	out := Cart{Owner: c.Owner, Lines: make([]CartLine, 0, len(c.Lines))}
	seen := make(map[LineKey]int, len(c.Lines))
	merged := 0
	for _, l := range c.Lines {
		if i, ok := seen[l.Key]; ok {
			out.Lines[i].Quantity += l.Quantity
			merged++
			continue
		}
		seen[l.Key] = len(out.Lines)
		out.Lines = append(out.Lines, l)
	}
	return out, merged
}

// ItemCount is the badge number: the sum of all quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (c Cart) index(key LineKey) int {
	for i := range c.Lines {
		if c.Lines[i].Key == key {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	lines := make([]CartLine, len(c.Lines), len(c.Lines)+1)
	copy(lines, c.Lines)
	return Cart{Owner: c.Owner, Lines: lines}
}

package memory

import (
	"context"
	"sync"

	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

// Store keeps carts in process memory. One mutex guards every cart, so an
// insert that races a concurrent insert of the same identity is merged.
type Store struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]domain.Cart)}
}

func (s *Store) Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.carts[owner.String()]
	return append([]domain.CartLine(nil), c.Lines...), nil
}

func (s *Store) FindLine(ctx context.Context, owner domain.Owner, key domain.LineKey) (domain.CartLine, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.carts[owner.String()].Find(key)
	return l, ok, nil
}

func (s *Store) InsertLine(ctx context.Context, owner domain.Owner, line domain.CartLine) error {
	s.update(owner, func(c domain.Cart) domain.Cart { return c.WithAdded(line) })
	return nil
}

func (s *Store) IncrementLine(ctx context.Context, owner domain.Owner, key domain.LineKey, delta int) error {
	var missing bool
	s.update(owner, func(c domain.Cart) domain.Cart {
		l, ok := c.Find(key)
		if !ok {
			missing = true
			return c
		}
		c, _ = c.WithQuantity(key, l.Quantity+delta)
		return c
	})
	if missing {
		return app.ErrLineNotFound
	}
	return nil
}

func (s *Store) SetQuantity(ctx context.Context, owner domain.Owner, key domain.LineKey, quantity int) error {
	var found bool
	s.update(owner, func(c domain.Cart) domain.Cart {
		c, found = c.WithQuantity(key, quantity)
		return c
	})
	if !found {
		return app.ErrLineNotFound
	}
	return nil
}

func (s *Store) DeleteLine(ctx context.Context, owner domain.Owner, key domain.LineKey) error {
	s.update(owner, func(c domain.Cart) domain.Cart { return c.Without(key) })
	return nil
}

func (s *Store) ReplaceLines(ctx context.Context, owner domain.Owner, lines []domain.CartLine) error {
	cp := append([]domain.CartLine(nil), lines...)
	s.update(owner, func(c domain.Cart) domain.Cart { return domain.Cart{Owner: owner, Lines: cp} })
	return nil
}

func (s *Store) FoldDuplicates(ctx context.Context, owner domain.Owner) (int, error) {
	var merged int
	s.update(owner, func(c domain.Cart) domain.Cart {
		c, merged = c.Deduplicated()
		return c
	})
	return merged, nil
}

func (s *Store) Clear(ctx context.Context, owner domain.Owner) error {
	s.mu.Lock()
	delete(s.carts, owner.String())
	s.mu.Unlock()
	return nil
}

// Owners lists every cart currently held.
func (s *Store) Owners(ctx context.Context) ([]domain.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Owner, 0, len(s.carts))
	for _, c := range s.carts {
		out = append(out, c.Owner)
	}
	return out, nil
}

func (s *Store) update(owner domain.Owner, fn func(domain.Cart) domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[owner.String()]
	if !ok {
		c = domain.Cart{Owner: owner}
	}
	c = fn(c)
	c.Owner = owner
	s.carts[owner.String()] = c
}

// Package redis stores guest carts as one JSON document per guest session.
// Writes use WATCH/MULTI so concurrent tabs never overwrite each other.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, prefix: "cart:"}
}

func (s *Store) key(owner domain.Owner) string {
	return s.prefix + owner.String()
}

func (s *Store) Lines(ctx context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	c, err := s.get(ctx, s.rdb, owner)
	if err != nil {
		return nil, err
	}
	return c.Lines, nil
}

func (s *Store) FindLine(ctx context.Context, owner domain.Owner, key domain.LineKey) (domain.CartLine, bool, error) {
	c, err := s.get(ctx, s.rdb, owner)
	if err != nil {
		return domain.CartLine{}, false, err
	}
	l, ok := c.Find(key)
	return l, ok, nil
}

func (s *Store) InsertLine(ctx context.Context, owner domain.Owner, line domain.CartLine) error {
	return s.update(ctx, owner, func(c domain.Cart) (domain.Cart, error) {
		return c.WithAdded(line), nil
	})
}

func (s *Store) IncrementLine(ctx context.Context, owner domain.Owner, key domain.LineKey, delta int) error {
	return s.update(ctx, owner, func(c domain.Cart) (domain.Cart, error) {
		l, ok := c.Find(key)
		if !ok {
			return c, app.ErrLineNotFound
		}
		c, _ = c.WithQuantity(key, l.Quantity+delta)
		return c, nil
	})
}

func (s *Store) SetQuantity(ctx context.Context, owner domain.Owner, key domain.LineKey, quantity int) error {
	return s.update(ctx, owner, func(c domain.Cart) (domain.Cart, error) {
		next, ok := c.WithQuantity(key, quantity)
		if !ok {
			return c, app.ErrLineNotFound
		}
		return next, nil
	})
}

func (s *Store) DeleteLine(ctx context.Context, owner domain.Owner, key domain.LineKey) error {
	return s.update(ctx, owner, func(c domain.Cart) (domain.Cart, error) {
		return c.Without(key), nil
	})
}

func (s *Store) ReplaceLines(ctx context.Context, owner domain.Owner, lines []domain.CartLine) error {
	return s.update(ctx, owner, func(domain.Cart) (domain.Cart, error) {
		return domain.Cart{Owner: owner, Lines: lines}, nil
	})
}

// FoldDuplicates runs inside the same WATCH transaction as every other
// write, so a line added by another tab meanwhile forces a retry instead of
// being dropped.
func (s *Store) FoldDuplicates(ctx context.Context, owner domain.Owner) (int, error) {
	var merged int
	err := s.update(ctx, owner, func(c domain.Cart) (domain.Cart, error) {
		c, merged = c.Deduplicated()
		return c, nil
	})
	return merged, err
}

func (s *Store) Clear(ctx context.Context, owner domain.Owner) error {
	return s.rdb.Del(ctx, s.key(owner)).Err()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) get(ctx context.Context, c getter, owner domain.Owner) (domain.Cart, error) {
	raw, err := c.Get(ctx, s.key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{Owner: owner}, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}
	return decode(owner, raw)
}

func (s *Store) update(ctx context.Context, owner domain.Owner, fn func(domain.Cart) (domain.Cart, error)) error {
	key := s.key(owner)
	txf := func(tx *redis.Tx) error {
		cur, err := s.get(ctx, tx, owner)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(next.Lines) == 0 {
				pipe.Del(ctx, key)
				return nil
			}
			raw, err := encode(next)
			if err != nil {
				return err
			}
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("guest cart %s: too much contention", owner.ID)
}

type document struct {
	Lines []domain.CartLine `json:"lines"`
}

func encode(c domain.Cart) ([]byte, error) {
	return json.Marshal(document{Lines: c.Lines})
}

func decode(owner domain.Owner, raw []byte) (domain.Cart, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Cart{}, fmt.Errorf("decode guest cart: %w", err)
	}
	return domain.Cart{Owner: owner, Lines: doc.Lines}, nil
}

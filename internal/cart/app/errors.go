package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrStockExceeded   = errors.New("stock exceeded")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrNoStore         = errors.New("no cart store for scope")
)

// StockError reports how many more units the shopper may add.
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	if e.Available <= 0 {
		return "out of stock"
	}
	return fmt.Sprintf("only %d left", e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrStockExceeded
}

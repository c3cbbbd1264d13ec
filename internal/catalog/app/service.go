package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

type Service struct {
	repo ProductRepo
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, strings.TrimSpace(id))
}

func (s *Service) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if strings.TrimSpace(slug) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
}

func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.MinPrice.Valid && filter.MinPrice.Decimal.IsNegative() {
		return nil, ErrInvalidInput
	}
	if filter.MinPrice.Valid && filter.MaxPrice.Valid && filter.MinPrice.Decimal.GreaterThan(filter.MaxPrice.Decimal) {
		return nil, ErrInvalidInput
	}
	filter.CategorySlug = strings.TrimSpace(filter.CategorySlug)
	return s.repo.List(ctx, filter)
}

// Select loads a product and picks a configuration of it.
func (s *Service) Select(ctx context.Context, productID, variationID, colorID string) (domain.Selection, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return domain.Selection{}, err
	}
	return p.Select(strings.TrimSpace(variationID), strings.TrimSpace(colorID))
}

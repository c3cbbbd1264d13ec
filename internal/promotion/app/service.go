package app

import (
	"context"
	"time"

	"github.com/dwikikusuma/storefront/internal/promotion/domain"
	"github.com/dwikikusuma/storefront/pkg/clock"
)

type PromotionRepo interface {
	// ListActive returns promotions flagged active whose end date is after
	// now. productID narrows the result to that product and global
	// promotions; empty means all.
	ListActive(ctx context.Context, now time.Time, productID string) ([]domain.Promotion, error)
}

type Service struct {
	repo  PromotionRepo
	clock clock.Clock
}

func NewService(repo PromotionRepo, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{repo: repo, clock: clk}
}

// ActiveFor returns the promotions that apply to productID right now.
func (s *Service) ActiveFor(ctx context.Context, productID string) (domain.ActiveSet, error) {
	now := s.clock.Now()
	promos, err := s.repo.ListActive(ctx, now, productID)
	if err != nil {
		return domain.ActiveSet{}, err
	}
	return domain.Pick(promos, productID, now), nil
}

// Snapshot loads every active promotion once so a listing page can pick per
// product without a query each.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	now := s.clock.Now()
	promos, err := s.repo.ListActive(ctx, now, "")
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{promos: promos, at: now}, nil
}

type Snapshot struct {
	promos []domain.Promotion
	at     time.Time
}

func (s Snapshot) For(productID string) domain.ActiveSet {
	return domain.Pick(s.promos, productID, s.at)
}

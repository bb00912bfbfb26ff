package app

import (
	"context"

	"badam/internal/domain"
)

// Counter actions accepted by the legacy mutation endpoint.
const (
	ActionIncrement = "increment"
	ActionDecrement = "decrement"
)

// CounterService encapsulates badam count use cases.
type CounterService struct {
	counters domain.CounterRepository
}

// NewCounterService creates a CounterService backed by the given repository.
func NewCounterService(counters domain.CounterRepository) *CounterService {
	return &CounterService{counters: counters}
}

// Get returns the current count, creating a zero record if none exists.
func (s *CounterService) Get(ctx context.Context, accountID int64) (int, error) {
	return s.counters.Get(ctx, accountID)
}

// Sync persists a whole-value count reported by the client. Negative values
// are clamped to zero; the client is expected not to send them, but the
// server does not trust it.
func (s *CounterService) Sync(ctx context.Context, accountID int64, count int) (int, error) {
	if count < 0 {
		count = 0
	}
	if err := s.counters.Set(ctx, accountID, count); err != nil {
		return 0, err
	}
	return count, nil
}

// Apply performs a server-side increment or decrement. Kept for the legacy
// mutation endpoint; decrements clamp at zero.
func (s *CounterService) Apply(ctx context.Context, accountID int64, action string) (int, error) {
	current, err := s.counters.Get(ctx, accountID)
	if err != nil {
		return 0, err
	}

	var next int
	switch action {
	case ActionIncrement:
		next = current + 1
	case ActionDecrement:
		next = current - 1
		if next < 0 {
			next = 0
		}
	default:
		return 0, ErrInvalidInput
	}

	if err := s.counters.Set(ctx, accountID, next); err != nil {
		return 0, err
	}
	return next, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodcourt/agg-svc/internal/domain"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
	dayLayout       = "2006-01-02"
)

var ErrInvalidQuery = errors.New("invalid query")

// AnalyticsService answers read queries over the aggregates the consumer keeps.
type AnalyticsService struct {
	Store AnalyticsReader
	now   func() time.Time
}

func NewAnalyticsService(store AnalyticsReader) *AnalyticsService {
	return &AnalyticsService{Store: store, now: time.Now}
}

// TopRestaurants clamps limit to [1, 100]; zero means the default of 10.
func (s *AnalyticsService) TopRestaurants(ctx context.Context, limit int) ([]domain.RestaurantPopularity, error) {
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidQuery)
	case limit == 0:
		limit = defaultTopLimit
	case limit > maxTopLimit:
		limit = maxTopLimit
	}
	return s.Store.TopRestaurants(ctx, limit)
}

// Daily defaults to the current UTC day.
func (s *AnalyticsService) Daily(ctx context.Context, date string) (domain.DailySummary, error) {
	if date == "" {
		date = s.now().UTC().Format(dayLayout)
	}
	if _, err := time.Parse(dayLayout, date); err != nil {
		return domain.DailySummary{}, fmt.Errorf("%w: date must look like %s", ErrInvalidQuery, dayLayout)
	}
	return s.Store.DailySummary(ctx, date)
}

func (s *AnalyticsService) Order(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidQuery)
	}
	return s.Store.OrderSnapshot(ctx, orderID)
}

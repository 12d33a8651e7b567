package service

import (
	"context"

	"foodcourt/agg-svc/internal/domain"
	"foodcourt/agg-svc/internal/storage"

	"github.com/segmentio/kafka-go"
)

type StoreInterface interface {
	RecordOrderPlaced(ctx context.Context, event domain.OrderEvent) error
	RecordStatusChange(ctx context.Context, event domain.OrderEvent) error
}

type AnalyticsReader interface {
	TopRestaurants(ctx context.Context, limit int) ([]domain.RestaurantPopularity, error)
	DailySummary(ctx context.Context, day string) (domain.DailySummary, error)
	OrderSnapshot(ctx context.Context, orderID string) (*domain.OrderSnapshot, error)
}

type AnalyticsInterface interface {
	TopRestaurants(ctx context.Context, limit int) ([]domain.RestaurantPopularity, error)
	Daily(ctx context.Context, date string) (domain.DailySummary, error)
	Order(ctx context.Context, orderID string) (*domain.OrderSnapshot, error)
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	Process(ctx context.Context, event domain.OrderEvent) error
}

var _ StoreInterface = (*storage.Store)(nil)
var _ AnalyticsReader = (*storage.Store)(nil)
var _ AnalyticsInterface = (*AnalyticsService)(nil)
var _ MessageReader = (*kafka.Reader)(nil)
var _ ConsumerInterface = (*Consumer)(nil)

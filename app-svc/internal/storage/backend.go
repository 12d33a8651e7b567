package storage

import (
	"context"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/service"
)

// PostgresBackend serves documents from Postgres and live order snapshots
// from the Redis feed. Order writes announce themselves on the feed.
type PostgresBackend struct {
	*PostgresRepository
	Feed *OrderFeed
}

func NewPostgresBackend(repo *PostgresRepository, feed *OrderFeed) *PostgresBackend {
	return &PostgresBackend{PostgresRepository: repo, Feed: feed}
}

func (b *PostgresBackend) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	id, err := b.PostgresRepository.CreateOrder(ctx, order)
	if err != nil {
		return "", err
	}
	b.announce(ctx, id)
	return id, nil
}

func (b *PostgresBackend) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	if err := b.PostgresRepository.UpdateOrder(ctx, id, patch); err != nil {
		return err
	}
	b.announce(ctx, id)
	return nil
}

func (b *PostgresBackend) DeleteOrder(ctx context.Context, id string) error {
	if err := b.PostgresRepository.DeleteOrder(ctx, id); err != nil {
		return err
	}
	b.announce(ctx, id)
	return nil
}

func (b *PostgresBackend) SubscribeOrders(ctx context.Context, filter domain.OrderFilter, onChange func([]domain.Order)) (service.Unsubscribe, error) {
	return b.Feed.SubscribeOrders(ctx, filter, onChange)
}

// announce never fails the write: the row is committed either way.
func (b *PostgresBackend) announce(ctx context.Context, orderID string) {
	if err := b.Feed.NotifyChanged(ctx, orderID); err != nil {
		b.Feed.Logger.WithError(err).WithField("order_id", orderID).Warn("order feed: notify")
	}
}

var _ service.Store = (*PostgresBackend)(nil)

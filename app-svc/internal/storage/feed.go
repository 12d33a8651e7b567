package storage

import (
	"context"
	"sync"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const OrderChangesChannel = "orders:changed"

type OrderLister interface {
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

// OrderFeed turns Redis pub/sub change notifications into full order snapshots
// re-read from the lister.
type OrderFeed struct {
	Client  *redis.Client
	Lister  OrderLister
	Channel string
	Logger  *logrus.Logger
}

func NewOrderFeed(client *redis.Client, lister OrderLister, logger *logrus.Logger) *OrderFeed {
	return &OrderFeed{Client: client, Lister: lister, Channel: OrderChangesChannel, Logger: logger}
}

func (f *OrderFeed) NotifyChanged(ctx context.Context, orderID string) error {
	return f.Client.Publish(ctx, f.Channel, orderID).Err()
}

func (f *OrderFeed) SubscribeOrders(ctx context.Context, filter domain.OrderFilter, onChange func([]domain.Order)) (service.Unsubscribe, error) {
	pubsub := f.Client.Subscribe(ctx, f.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	initial, err := f.Lister.ListOrders(ctx, filter)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	var (
		mu     sync.Mutex
		closed bool
	)
	deliver := func(orders []domain.Order) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			onChange(orders)
		}
	}
	deliver(initial)

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				orders, err := f.Lister.ListOrders(subCtx, filter)
				if err != nil {
					if subCtx.Err() == nil {
						f.Logger.WithError(err).Warn("order feed: reload snapshot")
					}
					continue
				}
				deliver(orders)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			closed = true
			mu.Unlock()
			cancel()
			<-done
		})
	}, nil
}

var _ service.OrderSubscriber = (*OrderFeed)(nil)

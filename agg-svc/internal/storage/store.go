package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"foodcourt/agg-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	dailyRetention = 30 * 24 * time.Hour
	orderRetention = 24 * time.Hour

	PopularityKey = "popularity:restaurants"
)

func DailyOrdersKey(day string) string  { return "orders:daily:" + day }
func DailyRevenueKey(day string) string { return "revenue:daily:" + day }
func OrderKey(orderID string) string    { return "order:" + orderID }

type Store struct {
	rdb *redis.Client
	now func() time.Time
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// day buckets by the event time, falling back to the arrival time.
func (s *Store) day(event domain.OrderEvent) string {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	return ts.UTC().Format("2006-01-02")
}

// recordPlaced counts an order once: a redelivered event finds the order
// hash already present and changes nothing.
var recordPlaced = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "restaurant_id", ARGV[1], "total_amount", ARGV[2], "status", ARGV[3], "last_updated", ARGV[4])
redis.call("EXPIRE", KEYS[1], ARGV[5])
redis.call("INCR", KEYS[2])
redis.call("EXPIRE", KEYS[2], ARGV[6])
redis.call("INCRBYFLOAT", KEYS[3], ARGV[2])
redis.call("EXPIRE", KEYS[3], ARGV[6])
redis.call("ZINCRBY", KEYS[4], 1, ARGV[1])
return 1
`)

// recordStatus only touches orders that were placed and not yet expired.
var recordStatus = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "status", ARGV[1], "last_updated", ARGV[2])
redis.call("EXPIRE", KEYS[1], ARGV[3])
return 1
`)

func seconds(d time.Duration) int64 { return int64(d / time.Second) }

// RecordOrderPlaced returns domain.ErrAlreadyRecorded for an order it has
// already counted.
func (s *Store) RecordOrderPlaced(ctx context.Context, event domain.OrderEvent) error {
	day := s.day(event)
	keys := []string{OrderKey(event.OrderID), DailyOrdersKey(day), DailyRevenueKey(day), PopularityKey}

	applied, err := recordPlaced.Run(ctx, s.rdb, keys,
		event.RestaurantID,
		strconv.FormatFloat(event.TotalAmount, 'f', -1, 64),
		event.Status,
		s.now().Unix(),
		seconds(orderRetention),
		seconds(dailyRetention),
	).Int()
	if err != nil {
		return err
	}
	if applied == 0 {
		return domain.ErrAlreadyRecorded
	}
	return nil
}

// RecordStatusChange returns domain.ErrNotFound when the order was never
// placed or has expired.
func (s *Store) RecordStatusChange(ctx context.Context, event domain.OrderEvent) error {
	applied, err := recordStatus.Run(ctx, s.rdb, []string{OrderKey(event.OrderID)},
		event.Status,
		s.now().Unix(),
		seconds(orderRetention),
	).Int()
	if err != nil {
		return err
	}
	if applied == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) TopRestaurants(ctx context.Context, limit int) ([]domain.RestaurantPopularity, error) {
	results, err := s.rdb.ZRevRangeWithScores(ctx, PopularityKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	top := make([]domain.RestaurantPopularity, 0, len(results))
	for _, result := range results {
		member, _ := result.Member.(string)
		top = append(top, domain.RestaurantPopularity{RestaurantID: member, Orders: result.Score})
	}
	return top, nil
}

// DailySummary reports zeros for a day without any orders.
func (s *Store) DailySummary(ctx context.Context, day string) (domain.DailySummary, error) {
	summary := domain.DailySummary{Date: day}

	orders, err := s.rdb.Get(ctx, DailyOrdersKey(day)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return summary, err
	}
	revenue, err := s.rdb.Get(ctx, DailyRevenueKey(day)).Float64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return summary, err
	}

	summary.Orders = orders
	summary.Revenue = revenue
	return summary, nil
}

func (s *Store) OrderSnapshot(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
	fields, err := s.rdb.HGetAll(ctx, OrderKey(orderID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	snapshot := &domain.OrderSnapshot{
		OrderID:      orderID,
		RestaurantID: fields["restaurant_id"],
		Status:       fields["status"],
	}
	snapshot.TotalAmount, _ = strconv.ParseFloat(fields["total_amount"], 64)
	snapshot.LastUpdated, _ = strconv.ParseInt(fields["last_updated"], 10, 64)
	return snapshot, nil
}

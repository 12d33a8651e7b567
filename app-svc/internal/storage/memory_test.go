package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RestaurantCRUD(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	open, err := store.CreateRestaurant(ctx, &domain.Restaurant{Name: "Open", Categories: []string{"Thai"}, IsActive: true})
	require.NoError(t, err)
	closed, err := store.CreateRestaurant(ctx, &domain.Restaurant{Name: "Closed"})
	require.NoError(t, err)

	all, err := store.ListRestaurants(ctx, domain.RestaurantFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, closed, all[0].ID, "newest first")

	active, err := store.ListRestaurants(ctx, domain.RestaurantFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open, active[0].ID)

	name := "Open Late"
	require.NoError(t, store.UpdateRestaurant(ctx, open, domain.RestaurantPatch{Name: &name}))
	got, err := store.GetRestaurant(ctx, open)
	require.NoError(t, err)
	assert.Equal(t, "Open Late", got.Name)
	assert.Equal(t, []string{"Thai"}, got.Categories)

	got.Categories[0] = "mutated"
	again, err := store.GetRestaurant(ctx, open)
	require.NoError(t, err)
	assert.Equal(t, "Thai", again.Categories[0])

	require.NoError(t, store.DeleteRestaurant(ctx, closed))
	_, err = store.GetRestaurant(ctx, closed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_MissingRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	name := "x"

	tests := []struct {
		name string
		call func() error
	}{
		{name: "update restaurant", call: func() error { return store.UpdateRestaurant(ctx, "nope", domain.RestaurantPatch{Name: &name}) }},
		{name: "delete restaurant", call: func() error { return store.DeleteRestaurant(ctx, "nope") }},
		{name: "update category", call: func() error { return store.UpdateCategory(ctx, "nope", domain.CategoryPatch{Name: &name}) }},
		{name: "delete category", call: func() error { return store.DeleteCategory(ctx, "nope") }},
		{name: "update food", call: func() error { return store.UpdateFood(ctx, "nope", domain.FoodPatch{Name: &name}) }},
		{name: "delete food", call: func() error { return store.DeleteFood(ctx, "nope") }},
		{name: "update order", call: func() error { return store.UpdateOrder(ctx, "nope", domain.OrderPatch{}) }},
		{name: "delete order", call: func() error { return store.DeleteOrder(ctx, "nope") }},
		{name: "set profile fields", call: func() error { return store.SetProfileFields(ctx, "nope", domain.ProfilePatch{Name: &name}) }},
		{name: "get order", call: func() error { _, err := store.GetOrder(ctx, "nope"); return err }},
		{name: "get food", call: func() error { _, err := store.GetFood(ctx, "nope"); return err }},
		{name: "get category", call: func() error { _, err := store.GetCategory(ctx, "nope"); return err }},
		{name: "get profile", call: func() error { _, err := store.GetProfile(ctx, "nope"); return err }},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.ErrorIs(t, testCase.call(), domain.ErrNotFound)
		})
	}
}

func TestMemoryStore_FoodFilters(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	for _, food := range []domain.FoodItem{
		{Name: "A", RestaurantID: "r1", IsAvailable: true},
		{Name: "B", RestaurantID: "r1"},
		{Name: "C", RestaurantID: "r2", IsAvailable: true},
	} {
		_, err := store.CreateFood(ctx, &food)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter domain.FoodFilter
		want   []string
	}{
		{name: "everything", filter: domain.FoodFilter{}, want: []string{"C", "B", "A"}},
		{name: "available", filter: domain.FoodFilter{AvailableOnly: true}, want: []string{"C", "A"}},
		{name: "restaurant", filter: domain.FoodFilter{RestaurantID: "r1"}, want: []string{"B", "A"}},
		{name: "restaurant and available", filter: domain.FoodFilter{RestaurantID: "r1", AvailableOnly: true}, want: []string{"A"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			foods, err := store.ListFoods(ctx, testCase.filter)
			require.NoError(t, err)
			var names []string
			for _, food := range foods {
				names = append(names, food.Name)
			}
			assert.Equal(t, testCase.want, names)
		})
	}
}

func TestMemoryStore_CategoriesOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first, err := store.CreateCategory(ctx, &domain.Category{Name: "Pizza"})
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, &domain.Category{Name: "Sushi"})
	require.NoError(t, err)

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, first, categories[0].ID)
}

type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots [][]domain.Order
}

func (r *snapshotRecorder) record(orders []domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, orders)
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *snapshotRecorder) last() []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestMemoryStore_SubscribeOrders(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	existing, err := store.CreateOrder(ctx, &domain.Order{UserID: "u1", Status: domain.StatusPending})
	require.NoError(t, err)

	mine := &snapshotRecorder{}
	everyone := &snapshotRecorder{}
	unsubMine, err := store.SubscribeOrders(ctx, domain.OrderFilter{UserID: "u1"}, mine.record)
	require.NoError(t, err)
	unsubAll, err := store.SubscribeOrders(ctx, domain.OrderFilter{}, everyone.record)
	require.NoError(t, err)
	defer unsubAll()

	require.Equal(t, 1, mine.count(), "initial snapshot is delivered on subscribe")
	assert.Equal(t, existing, mine.last()[0].ID)

	newer, err := store.CreateOrder(ctx, &domain.Order{UserID: "u1", Status: domain.StatusPending})
	require.NoError(t, err)
	_, err = store.CreateOrder(ctx, &domain.Order{UserID: "u2", Status: domain.StatusPending})
	require.NoError(t, err)

	snapshot := mine.last()
	require.Len(t, snapshot, 2)
	assert.Equal(t, newer, snapshot[0].ID)
	assert.Len(t, everyone.last(), 3)

	unsubMine()
	unsubMine()
	seen := mine.count()

	status := domain.StatusDelivered
	require.NoError(t, store.UpdateOrder(ctx, existing, domain.OrderPatch{Status: &status}))
	assert.Equal(t, seen, mine.count(), "no callback after unsubscribe")
	assert.Equal(t, domain.StatusDelivered, everyone.last()[2].Status)

	require.NoError(t, store.DeleteOrder(ctx, newer))
	assert.Len(t, everyone.last(), 2)
}

func TestMemoryStore_SubscriptionEndsWithContext(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	recorder := &snapshotRecorder{}
	unsubscribe, err := store.SubscribeOrders(ctx, domain.OrderFilter{}, recorder.record)
	require.NoError(t, err)
	defer unsubscribe()

	cancel()
	assert.Eventually(t, func() bool {
		before := recorder.count()
		_, err := store.CreateOrder(context.Background(), &domain.Order{UserID: "u1"})
		require.NoError(t, err)
		return recorder.count() == before
	}, time.Second, 10*time.Millisecond)

	_, err = store.SubscribeOrders(ctx, domain.OrderFilter{}, recorder.record)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_Accounts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	require.NoError(t, store.InsertAccount(ctx, storage.Account{ID: "u1", Email: "ann@x.io", PasswordHash: "h"}))
	assert.ErrorIs(t, store.InsertAccount(ctx, storage.Account{ID: "u2", Email: "ANN@x.io"}), domain.ErrEmailTaken)

	account, err := store.FindAccountByEmail(ctx, "Ann@X.io")
	require.NoError(t, err)
	assert.Equal(t, "u1", account.ID)

	_, err = store.FindAccountByEmail(ctx, "bob@x.io")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemorySessionStorage(t *testing.T) {
	ctx := context.Background()
	sessions := &storage.MemorySessionStorage{}

	_, err := sessions.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, sessions.Set(ctx, "token"))
	value, err := sessions.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token", value)

	require.NoError(t, sessions.Clear(ctx))
	_, err = sessions.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

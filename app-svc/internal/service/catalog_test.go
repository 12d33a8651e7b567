package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/mocks"
	"foodcourt/app-svc/internal/service"
	"foodcourt/app-svc/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeSession is an IdentitySource the test switches by hand. Listeners run
// synchronously on the caller of set.
type fakeSession struct {
	mu        sync.Mutex
	identity  *domain.Identity
	listeners map[int]func(service.SessionState)
	next      int
}

func newFakeSession(identity *domain.Identity) *fakeSession {
	return &fakeSession{identity: identity, listeners: make(map[int]func(service.SessionState))}
}

func (f *fakeSession) Identity() *domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identity == nil {
		return nil
	}
	identity := *f.identity
	return &identity
}

func (f *fakeSession) OnChange(fn func(service.SessionState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeSession) set(identity *domain.Identity) {
	f.mu.Lock()
	f.identity = identity
	listeners := make([]func(service.SessionState), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	state := service.SessionState{Status: service.SessionUnauthenticated}
	if identity != nil {
		state = service.SessionState{Status: service.SessionAuthenticated, Identity: identity}
	}
	for _, fn := range listeners {
		fn(state)
	}
}

// flakyStore fails chosen operations on top of the memory store.
type flakyStore struct {
	*storage.MemoryStore

	mu               sync.Mutex
	rejectRestaurant string
	failLists        bool
}

func (s *flakyStore) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	s.mu.Lock()
	reject := s.rejectRestaurant
	s.mu.Unlock()
	if order.RestaurantID == reject {
		return "", errors.New("write rejected")
	}
	return s.MemoryStore.CreateOrder(ctx, order)
}

func (s *flakyStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	fail := s.failLists
	s.mu.Unlock()
	if fail {
		return nil, errors.New("backend down")
	}
	return s.MemoryStore.ListCategories(ctx)
}

var (
	customer = domain.Identity{ID: "u1", Email: "ann@x.io", Name: "Ann", Role: domain.RoleUser, IsActive: true}
	admin    = domain.Identity{ID: "a1", Email: "root@x.io", Name: "Root", Role: domain.RoleAdmin, IsActive: true}
)

type seeded struct {
	pizza, diner string
}

func seedStore(t *testing.T, store service.Store) seeded {
	ctx := context.Background()

	pizza, err := store.CreateRestaurant(ctx, &domain.Restaurant{Name: "Pizza Place", Categories: []string{"Italian"}, IsActive: true})
	require.NoError(t, err)
	diner, err := store.CreateRestaurant(ctx, &domain.Restaurant{Name: "Closed Diner", IsActive: false})
	require.NoError(t, err)

	_, err = store.CreateFood(ctx, &domain.FoodItem{Name: "Margherita", Price: 9.5, RestaurantID: pizza, IsAvailable: true})
	require.NoError(t, err)
	_, err = store.CreateFood(ctx, &domain.FoodItem{Name: "Secret Calzone", Price: 11, RestaurantID: pizza, IsAvailable: false})
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, &domain.Category{Name: "Italian"})
	require.NoError(t, err)

	require.NoError(t, store.CreateProfile(ctx, customer.ID, customer))
	require.NoError(t, store.CreateProfile(ctx, admin.ID, admin))

	return seeded{pizza: pizza, diner: diner}
}

func newTestCatalog(t *testing.T, store service.Store, session *fakeSession, publisher service.OrderEventPublisher) (*service.Catalog, *test.Hook) {
	logger, hook := test.NewNullLogger()
	catalog := service.NewCatalog(store, session, publisher, logger)
	catalog.Start(context.Background())
	t.Cleanup(catalog.Close)
	return catalog, hook
}

func TestCatalog_RefreshReadPaths(t *testing.T) {
	tests := []struct {
		name            string
		identity        *domain.Identity
		wantRestaurants []string
		wantFoods       []string
		wantUsers       int
	}{
		{
			name:            "anonymous sees active and available only",
			wantRestaurants: []string{"Pizza Place"},
			wantFoods:       []string{"Margherita"},
		},
		{
			name:            "customer sees active and available only",
			identity:        &customer,
			wantRestaurants: []string{"Pizza Place"},
			wantFoods:       []string{"Margherita"},
		},
		{
			name:            "admin sees everything",
			identity:        &admin,
			wantRestaurants: []string{"Closed Diner", "Pizza Place"},
			wantFoods:       []string{"Secret Calzone", "Margherita"},
			wantUsers:       2,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			seedStore(t, store)
			catalog, _ := newTestCatalog(t, store, newFakeSession(testCase.identity), nil)

			var restaurants, foods []string
			for _, rest := range catalog.Restaurants() {
				restaurants = append(restaurants, rest.Name)
			}
			for _, food := range catalog.Foods() {
				foods = append(foods, food.Name)
			}
			assert.Equal(t, testCase.wantRestaurants, restaurants)
			assert.Equal(t, testCase.wantFoods, foods)
			assert.Len(t, catalog.Users(), testCase.wantUsers)
			assert.Len(t, catalog.Categories(), 1)
		})
	}
}

func TestCatalog_OrderScopeFollowsIdentity(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ids := seedStore(t, store)

	_, err := store.CreateOrder(ctx, &domain.Order{UserID: customer.ID, RestaurantID: ids.pizza, TotalAmount: 9.5, Status: domain.StatusPending})
	require.NoError(t, err)
	_, err = store.CreateOrder(ctx, &domain.Order{UserID: "u2", RestaurantID: ids.pizza, TotalAmount: 19, Status: domain.StatusDelivered})
	require.NoError(t, err)

	session := newFakeSession(&admin)
	catalog, _ := newTestCatalog(t, store, session, nil)

	var mu sync.Mutex
	var snapshots [][]domain.Order
	cancel := catalog.OnOrders(func(orders []domain.Order) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, orders)
	})
	defer cancel()

	assert.Len(t, catalog.Orders(), 2)

	session.set(&customer)
	orders := catalog.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, customer.ID, orders[0].UserID)
	assert.Len(t, catalog.Users(), 0)

	session.set(nil)
	assert.Empty(t, catalog.Orders())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snapshots)
	assert.Empty(t, snapshots[len(snapshots)-1])
}

func TestCatalog_LiveOrderUpdates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ids := seedStore(t, store)
	catalog, _ := newTestCatalog(t, store, newFakeSession(&customer), nil)

	assert.Empty(t, catalog.Orders())

	first, err := store.CreateOrder(ctx, &domain.Order{UserID: customer.ID, RestaurantID: ids.pizza, Status: domain.StatusPending})
	require.NoError(t, err)
	second, err := store.CreateOrder(ctx, &domain.Order{UserID: customer.ID, RestaurantID: ids.pizza, Status: domain.StatusPending})
	require.NoError(t, err)
	_, err = store.CreateOrder(ctx, &domain.Order{UserID: "someone-else", RestaurantID: ids.pizza, Status: domain.StatusPending})
	require.NoError(t, err)

	orders := catalog.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)

	status := domain.StatusPreparing
	require.NoError(t, store.UpdateOrder(ctx, first, domain.OrderPatch{Status: &status}))
	assert.Equal(t, domain.StatusPreparing, catalog.Orders()[1].Status)
}

func TestCatalog_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("requires identity", func(t *testing.T) {
		catalog, _ := newTestCatalog(t, storage.NewMemoryStore(), newFakeSession(nil), nil)
		_, err := catalog.PlaceOrder(ctx, []domain.OrderDraft{{RestaurantID: "r1"}})
		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	})

	t.Run("rejects no drafts", func(t *testing.T) {
		catalog, _ := newTestCatalog(t, storage.NewMemoryStore(), newFakeSession(&customer), nil)
		_, err := catalog.PlaceOrder(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("drafts are independent", func(t *testing.T) {
		store := &flakyStore{MemoryStore: storage.NewMemoryStore(), rejectRestaurant: "r-broken"}
		ids := seedStore(t, store)
		catalog, _ := newTestCatalog(t, store, newFakeSession(&customer), nil)

		drafts := []domain.OrderDraft{
			{RestaurantID: ids.pizza, Items: []domain.OrderItem{{FoodID: "f1", Name: "Margherita", Quantity: 2, Price: 9.5}}},
			{RestaurantID: "r-broken", Items: []domain.OrderItem{{FoodID: "f2", Name: "Soup", Quantity: 1, Price: 3}}},
			{RestaurantID: "r-empty"},
			{RestaurantID: "r-gone", Items: []domain.OrderItem{{FoodID: "f3", Name: "Tea", Quantity: 3, Price: 0.1}}},
		}

		results, err := catalog.PlaceOrder(ctx, drafts)
		require.NoError(t, err)
		require.Len(t, results, 4)

		assert.True(t, results[0].OK())
		assert.NotEmpty(t, results[0].OrderID)
		assert.ErrorContains(t, results[1].Err, "write rejected")
		assert.ErrorIs(t, results[2].Err, domain.ErrInvalidInput)
		assert.True(t, results[3].OK())
		for i, result := range results {
			assert.Equal(t, drafts[i].RestaurantID, result.RestaurantID)
		}

		placed, err := store.GetOrder(ctx, results[0].OrderID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, placed.Status)
		assert.Equal(t, "Pizza Place", placed.RestaurantName)
		assert.Equal(t, "Pick up", placed.Address)
		assert.Equal(t, "Ann", placed.UserName)
		assert.Equal(t, 19.0, placed.TotalAmount)

		unknown, err := store.GetOrder(ctx, results[3].OrderID)
		require.NoError(t, err)
		assert.Equal(t, "Unknown Restaurant", unknown.RestaurantName)
		assert.Equal(t, 0.3, unknown.TotalAmount)

		assert.Len(t, catalog.Orders(), 2)
	})

	t.Run("publishes placed events", func(t *testing.T) {
		store := storage.NewMemoryStore()
		ids := seedStore(t, store)
		publisher := mocks.NewOrderEventPublisher(t)
		publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(event domain.OrderEvent) bool {
			return event.Type == domain.EventOrderPlaced && event.RestaurantID == ids.pizza &&
				event.UserID == customer.ID && event.TotalAmount == 9.5
		})).Return(errors.New("broker down")).Once()

		catalog, hook := newTestCatalog(t, store, newFakeSession(&customer), publisher)
		results, err := catalog.PlaceOrder(ctx, []domain.OrderDraft{
			{RestaurantID: ids.pizza, Items: []domain.OrderItem{{FoodID: "f1", Name: "Margherita", Quantity: 1, Price: 9.5}}},
		})
		require.NoError(t, err)
		assert.True(t, results[0].OK())

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, "failed to publish order event", entry.Message)
	})
}

func TestCatalog_Checkout(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: storage.NewMemoryStore(), rejectRestaurant: "r-broken"}
	ids := seedStore(t, store)
	catalog, _ := newTestCatalog(t, store, newFakeSession(&customer), nil)

	cart := service.NewCartWithIDs(sequentialIDs())
	_, err := cart.AddItem(domain.CartEntry{MenuItemID: "f1", RestaurantID: ids.pizza, Name: "Margherita", Price: 9.5, Quantity: 2})
	require.NoError(t, err)
	_, err = cart.AddItem(domain.CartEntry{MenuItemID: "f2", RestaurantID: "r-broken", Name: "Soup", Price: 4, Quantity: 1})
	require.NoError(t, err)

	results, err := catalog.Checkout(ctx, cart)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())

	remaining := cart.Items()
	require.Len(t, remaining, 1)
	assert.Equal(t, "r-broken", remaining[0].RestaurantID)

	orders := catalog.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "Pizza Place", orders[0].RestaurantName)

	t.Run("empty cart", func(t *testing.T) {
		_, err := catalog.Checkout(ctx, service.NewCart())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCatalog_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ids := seedStore(t, store)
	orderID, err := store.CreateOrder(ctx, &domain.Order{UserID: customer.ID, RestaurantID: ids.pizza, Status: domain.StatusPending})
	require.NoError(t, err)

	tests := []struct {
		name       string
		orderID    string
		status     domain.OrderStatus
		setupMocks func(*mocks.OrderEventPublisher)
		wantErr    error
	}{
		{
			name:    "valid status",
			orderID: orderID,
			status:  domain.StatusOnTheWay,
			setupMocks: func(publisher *mocks.OrderEventPublisher) {
				publisher.On("PublishOrderEvent", mock.Anything, mock.MatchedBy(func(event domain.OrderEvent) bool {
					return event.Type == domain.EventStatusChanged && event.OrderID == orderID && event.Status == domain.StatusOnTheWay
				})).Return(nil).Once()
			},
		},
		{
			name:       "backwards transition is allowed",
			orderID:    orderID,
			status:     domain.StatusPending,
			setupMocks: func(publisher *mocks.OrderEventPublisher) { publisher.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil).Once() },
		},
		{
			name:       "unknown status",
			orderID:    orderID,
			status:     domain.OrderStatus("Lost"),
			setupMocks: func(*mocks.OrderEventPublisher) {},
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:       "missing order",
			orderID:    "nope",
			status:     domain.StatusDelivered,
			setupMocks: func(*mocks.OrderEventPublisher) {},
			wantErr:    domain.ErrNotFound,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			publisher := mocks.NewOrderEventPublisher(t)
			testCase.setupMocks(publisher)
			catalog, _ := newTestCatalog(t, store, newFakeSession(&admin), publisher)

			err := catalog.UpdateOrderStatus(ctx, testCase.orderID, testCase.status)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				return
			}
			require.NoError(t, err)
			order, err := store.GetOrder(ctx, testCase.orderID)
			require.NoError(t, err)
			assert.Equal(t, testCase.status, order.Status)
		})
	}
}

func TestCatalog_AdminMutations(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	ids := seedStore(t, store)
	catalog, hook := newTestCatalog(t, store, newFakeSession(&admin), nil)

	t.Run("add restaurant refreshes the mirror", func(t *testing.T) {
		id, err := catalog.AddRestaurant(ctx, domain.Restaurant{Name: " Noodle Bar ", Categories: domain.ParseCategories("Asian, Soup")})
		require.NoError(t, err)

		rest, ok := catalog.Restaurant(id)
		require.True(t, ok)
		assert.Equal(t, "Noodle Bar", rest.Name)
		assert.True(t, rest.IsActive)
		assert.Equal(t, []string{"Asian", "Soup"}, rest.Categories)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := catalog.AddRestaurant(ctx, domain.Restaurant{Name: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = catalog.AddMenuItem(ctx, ids.pizza, domain.FoodItem{Name: "Free lunch", Price: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = catalog.AddCategory(ctx, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing records", func(t *testing.T) {
		assert.ErrorIs(t, catalog.DeleteRestaurant(ctx, "nope"), domain.ErrNotFound)
		assert.ErrorIs(t, catalog.DeleteMenuItem(ctx, "nope"), domain.ErrNotFound)
		assert.ErrorIs(t, catalog.ToggleUserStatus(ctx, "nope", false), domain.ErrNotFound)
	})

	t.Run("menu item belongs to restaurant", func(t *testing.T) {
		id, err := catalog.AddMenuItem(ctx, ids.diner, domain.FoodItem{Name: "Pancakes", Price: 6})
		require.NoError(t, err)

		menu, err := catalog.FetchRestaurantMenu(ctx, ids.diner)
		require.NoError(t, err)
		require.Len(t, menu, 1)
		assert.Equal(t, id, menu[0].ID)
		assert.True(t, menu[0].IsAvailable)
	})

	t.Run("toggle user status", func(t *testing.T) {
		require.NoError(t, catalog.ToggleUserStatus(ctx, customer.ID, false))
		for _, user := range catalog.Users() {
			if user.ID == customer.ID {
				assert.False(t, user.IsActive)
			}
		}
	})

	t.Run("failed refresh keeps the mutation", func(t *testing.T) {
		store.mu.Lock()
		store.failLists = true
		store.mu.Unlock()
		defer func() {
			store.mu.Lock()
			store.failLists = false
			store.mu.Unlock()
		}()

		before := len(catalog.Restaurants())
		id, err := catalog.AddRestaurant(ctx, domain.Restaurant{Name: "Taco Stand"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Len(t, catalog.Restaurants(), before)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "refresh after mutation failed", entry.Message)
		assert.Equal(t, "add restaurant", entry.Data["op"])
	})
}

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/service"

	"github.com/google/uuid"
)

// MemoryStore is an in-process document store with live order snapshots.
// It backs local development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	restaurants map[string]domain.Restaurant
	categories  map[string]domain.Category
	foods       map[string]domain.FoodItem
	orders      map[string]domain.Order
	profiles    map[string]domain.Identity
	accounts    map[string]Account
	version     uint64
	lastStamp   time.Time

	subMu   sync.Mutex
	subs    map[int]*memorySubscription
	nextSub int

	newID func() string
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		restaurants: make(map[string]domain.Restaurant),
		categories:  make(map[string]domain.Category),
		foods:       make(map[string]domain.FoodItem),
		orders:      make(map[string]domain.Order),
		profiles:    make(map[string]domain.Identity),
		accounts:    make(map[string]Account),
		subs:        make(map[int]*memorySubscription),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// stamp returns strictly increasing creation times so ordering is total.
func (s *MemoryStore) stamp() time.Time {
	t := s.now()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = t
	return t
}

func copyRestaurant(r domain.Restaurant) domain.Restaurant {
	r.Categories = append([]string(nil), r.Categories...)
	return r
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

func (s *MemoryStore) ListRestaurants(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var restaurants []domain.Restaurant
	for _, rest := range s.restaurants {
		if filter.ActiveOnly && !rest.IsActive {
			continue
		}
		restaurants = append(restaurants, copyRestaurant(rest))
	}
	sort.Slice(restaurants, func(i, j int) bool { return restaurants[i].CreatedAt.After(restaurants[j].CreatedAt) })
	return restaurants, nil
}

func (s *MemoryStore) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rest, ok := s.restaurants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rest = copyRestaurant(rest)
	return &rest, nil
}

func (s *MemoryStore) CreateRestaurant(ctx context.Context, rest *domain.Restaurant) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest.ID = s.newID()
	rest.CreatedAt = s.stamp()
	s.restaurants[rest.ID] = copyRestaurant(*rest)
	return rest.ID, nil
}

func (s *MemoryStore) UpdateRestaurant(ctx context.Context, id string, patch domain.RestaurantPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest, ok := s.restaurants[id]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(&rest)
	s.restaurants[id] = rest
	return nil
}

func (s *MemoryStore) DeleteRestaurant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.restaurants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.restaurants, id)
	return nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []domain.Category
	for _, category := range s.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].CreatedAt.Before(categories[j].CreatedAt) })
	return categories, nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &category, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, category *domain.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category.ID = s.newID()
	category.CreatedAt = s.stamp()
	s.categories[category.ID] = *category
	return category.ID, nil
}

func (s *MemoryStore) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(&category)
	s.categories[id] = category
	return nil
}

func (s *MemoryStore) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) ListFoods(ctx context.Context, filter domain.FoodFilter) ([]domain.FoodItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var foods []domain.FoodItem
	for _, food := range s.foods {
		if filter.AvailableOnly && !food.IsAvailable {
			continue
		}
		if filter.RestaurantID != "" && food.RestaurantID != filter.RestaurantID {
			continue
		}
		foods = append(foods, food)
	}
	sort.Slice(foods, func(i, j int) bool { return foods[i].CreatedAt.After(foods[j].CreatedAt) })
	return foods, nil
}

func (s *MemoryStore) GetFood(ctx context.Context, id string) (*domain.FoodItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	food, ok := s.foods[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &food, nil
}

func (s *MemoryStore) CreateFood(ctx context.Context, food *domain.FoodItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	food.ID = s.newID()
	food.CreatedAt = s.stamp()
	s.foods[food.ID] = *food
	return food.ID, nil
}

func (s *MemoryStore) UpdateFood(ctx context.Context, id string, patch domain.FoodPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	food, ok := s.foods[id]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(&food)
	s.foods[id] = food
	return nil
}

func (s *MemoryStore) DeleteFood(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.foods[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.foods, id)
	return nil
}

func (s *MemoryStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ordersLocked(filter), nil
}

func (s *MemoryStore) ordersLocked(filter domain.OrderFilter) []domain.Order {
	orders := make([]domain.Order, 0)
	for _, order := range s.orders {
		if filter.Matches(order) {
			orders = append(orders, copyOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order = copyOrder(order)
	return &order, nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	s.mu.Lock()
	order.ID = s.newID()
	order.CreatedAt = s.stamp()
	s.orders[order.ID] = copyOrder(*order)
	s.version++
	s.mu.Unlock()

	s.publishOrders()
	return order.ID, nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	s.mu.Lock()
	order, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	patch.Apply(&order)
	s.orders[id] = order
	s.version++
	s.mu.Unlock()

	s.publishOrders()
	return nil
}

func (s *MemoryStore) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.orders[id]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.orders, id)
	s.version++
	s.mu.Unlock()

	s.publishOrders()
	return nil
}

type memorySubscription struct {
	filter   domain.OrderFilter
	onChange func([]domain.Order)

	mu          sync.Mutex
	closed      bool
	lastVersion uint64
	delivered   bool
}

// deliver drops snapshots older than one already delivered.
func (sub *memorySubscription) deliver(version uint64, orders []domain.Order) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed || (sub.delivered && version < sub.lastVersion) {
		return
	}
	sub.delivered = true
	sub.lastVersion = version
	sub.onChange(orders)
}

func (s *MemoryStore) SubscribeOrders(ctx context.Context, filter domain.OrderFilter, onChange func([]domain.Order)) (service.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &memorySubscription{filter: filter, onChange: onChange}

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.subMu.Unlock()

	var once sync.Once
	closeSub := func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()

			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}

	s.mu.RLock()
	version := s.version
	initial := s.ordersLocked(filter)
	s.mu.RUnlock()
	sub.deliver(version, initial)

	stop := context.AfterFunc(ctx, closeSub)
	return func() {
		stop()
		closeSub()
	}, nil
}

func (s *MemoryStore) publishOrders() {
	s.subMu.Lock()
	subs := make([]*memorySubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()

	for _, sub := range subs {
		s.mu.RLock()
		version := s.version
		snapshot := s.ordersLocked(sub.filter)
		s.mu.RUnlock()
		sub.deliver(version, snapshot)
	}
}

func (s *MemoryStore) CreateProfile(ctx context.Context, id string, profile domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.ID = id
	s.profiles[id] = profile
	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, id string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &profile, nil
}

func (s *MemoryStore) ListProfiles(ctx context.Context) ([]domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var profiles []domain.Identity
	for _, profile := range s.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Email < profiles[j].Email })
	return profiles, nil
}

func (s *MemoryStore) SetProfileFields(ctx context.Context, id string, patch domain.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(&profile)
	s.profiles[id] = profile
	return nil
}

func (s *MemoryStore) InsertAccount(ctx context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(account.Email)
	if _, exists := s.accounts[email]; exists {
		return domain.ErrEmailTaken
	}
	s.accounts[email] = account
	return nil
}

func (s *MemoryStore) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &account, nil
}

var _ service.Store = (*MemoryStore)(nil)
var _ AccountStore = (*MemoryStore)(nil)

// MemorySessionStorage keeps the serialized session for the process lifetime.
type MemorySessionStorage struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (m *MemorySessionStorage) Get(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", domain.ErrNotFound
	}
	return m.value, nil
}

func (m *MemorySessionStorage) Set(ctx context.Context, serialized string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = serialized, true
	return nil
}

func (m *MemorySessionStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = "", false
	return nil
}

var _ service.SessionStorage = (*MemorySessionStorage)(nil)

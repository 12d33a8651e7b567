package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/metrics"

	"github.com/sirupsen/logrus"
)

const (
	unknownRestaurant = "Unknown Restaurant"
	pickUpAddress     = "Pick up"
)

// IdentitySource is the part of the session manager the catalog depends on.
type IdentitySource interface {
	Identity() *domain.Identity
	OnChange(fn func(SessionState)) (cancel func())
}

// Catalog mirrors the backend collections for the current identity and
// exposes the mutations the views trigger. Mutations of cached collections
// are followed by a full Refresh instead of a local patch.
type Catalog struct {
	store     Store
	session   IdentitySource
	publisher OrderEventPublisher
	logger    *logrus.Logger

	mu          sync.RWMutex
	restaurants []domain.Restaurant
	categories  []domain.Category
	foods       []domain.FoodItem
	users       []domain.Identity
	orders      []domain.Order
	orderGen    int

	// subMu serializes identity changes so exactly one subscription is live.
	subMu       sync.Mutex
	started     bool
	activeKey   string
	unsubscribe Unsubscribe
	stopSession func()

	listenerMu     sync.Mutex
	orderListeners map[int]func([]domain.Order)
	nextListener   int
}

// NewCatalog wires the aggregator. publisher may be nil.
func NewCatalog(store Store, session IdentitySource, publisher OrderEventPublisher, logger *logrus.Logger) *Catalog {
	return &Catalog{
		store:          store,
		session:        session,
		publisher:      publisher,
		logger:         logger,
		orderListeners: make(map[int]func([]domain.Order)),
	}
}

// Start performs the first refresh and follows identity changes. ctx bounds
// the lifetime of the order subscription.
func (c *Catalog) Start(ctx context.Context) {
	c.stopSession = c.session.OnChange(func(SessionState) {
		c.applyIdentity(ctx)
	})
	c.applyIdentity(ctx)
}

func (c *Catalog) Close() {
	if c.stopSession != nil {
		c.stopSession()
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.teardownLocked()
}

func identityKey(identity *domain.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.ID + "/" + string(identity.Role)
}

func (c *Catalog) applyIdentity(ctx context.Context) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	identity := c.session.Identity()
	key := identityKey(identity)
	if c.started && key == c.activeKey {
		return
	}
	c.started = true
	c.activeKey = key

	c.teardownLocked()

	if err := c.Refresh(ctx); err != nil {
		c.logger.WithError(err).Error("Error fetching data")
	}

	if identity == nil {
		return
	}

	filter := domain.OrderFilter{}
	if !identity.IsAdmin() {
		filter.UserID = identity.ID
	}

	c.mu.RLock()
	gen := c.orderGen
	c.mu.RUnlock()

	unsubscribe, err := c.store.SubscribeOrders(ctx, filter, func(orders []domain.Order) {
		c.receiveOrders(gen, orders)
	})
	if err != nil {
		c.logger.WithError(err).WithField("user_id", identity.ID).Error("could not subscribe to orders")
		return
	}
	c.unsubscribe = unsubscribe
	c.logger.WithFields(logrus.Fields{"user_id": identity.ID, "scope": scopeName(filter)}).Debug("order subscription opened")
}

// teardownLocked stops the live subscription and empties the order mirror
// before any new subscription can deliver.
func (c *Catalog) teardownLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
		c.logger.Debug("order subscription closed")
	}

	c.mu.Lock()
	c.orderGen++
	c.orders = nil
	c.mu.Unlock()

	c.notifyOrders(nil)
}

func (c *Catalog) receiveOrders(gen int, orders []domain.Order) {
	c.mu.Lock()
	if gen != c.orderGen {
		c.mu.Unlock()
		return
	}
	c.orders = append([]domain.Order(nil), orders...)
	c.mu.Unlock()

	c.notifyOrders(orders)
}

func scopeName(filter domain.OrderFilter) string {
	if filter.UserID == "" {
		return "all"
	}
	return "user"
}

// OnOrders registers fn for every new order snapshot, including the empty
// snapshot published when a subscription is torn down.
func (c *Catalog) OnOrders(fn func([]domain.Order)) (cancel func()) {
	c.listenerMu.Lock()
	id := c.nextListener
	c.nextListener++
	c.orderListeners[id] = fn
	c.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenerMu.Lock()
			delete(c.orderListeners, id)
			c.listenerMu.Unlock()
		})
	}
}

func (c *Catalog) notifyOrders(orders []domain.Order) {
	c.listenerMu.Lock()
	listeners := make([]func([]domain.Order), 0, len(c.orderListeners))
	for _, fn := range c.orderListeners {
		listeners = append(listeners, fn)
	}
	c.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(append([]domain.Order(nil), orders...))
	}
}

// Refresh re-fetches every cached collection using the admin (unfiltered)
// or customer (active and available only) read path. Nothing is replaced
// unless every read succeeds.
func (c *Catalog) Refresh(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { metrics.RecordRefresh(err == nil, time.Since(started)) }()

	admin := c.session.Identity().IsAdmin()

	restaurants, err := c.store.ListRestaurants(ctx, domain.RestaurantFilter{ActiveOnly: !admin})
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}
	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	foods, err := c.store.ListFoods(ctx, domain.FoodFilter{AvailableOnly: !admin})
	if err != nil {
		return fmt.Errorf("list foods: %w", err)
	}
	var users []domain.Identity
	if admin {
		if users, err = c.store.ListProfiles(ctx); err != nil {
			return fmt.Errorf("list users: %w", err)
		}
	}

	c.mu.Lock()
	c.restaurants = restaurants
	c.categories = categories
	c.foods = foods
	c.users = users
	c.mu.Unlock()
	return nil
}

// refreshAfter keeps a successful mutation successful: a failed follow-up
// refresh is logged and the next read shows the previous mirror.
func (c *Catalog) refreshAfter(ctx context.Context, op string) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.WithError(err).WithField("op", op).Warn("refresh after mutation failed")
	}
}

func (c *Catalog) Restaurants() []domain.Restaurant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Restaurant(nil), c.restaurants...)
}

func (c *Catalog) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Category(nil), c.categories...)
}

func (c *Catalog) Foods() []domain.FoodItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.FoodItem(nil), c.foods...)
}

func (c *Catalog) Users() []domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Identity(nil), c.users...)
}

func (c *Catalog) Orders() []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Order(nil), c.orders...)
}

// Restaurant looks the id up in the mirror.
func (c *Catalog) Restaurant(id string) (domain.Restaurant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rest := range c.restaurants {
		if rest.ID == id {
			return rest, true
		}
	}
	return domain.Restaurant{}, false
}

// FetchRestaurantMenu reads one restaurant's items straight from the store.
func (c *Catalog) FetchRestaurantMenu(ctx context.Context, restaurantID string) ([]domain.FoodItem, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant is required", domain.ErrInvalidInput)
	}
	admin := c.session.Identity().IsAdmin()
	return c.store.ListFoods(ctx, domain.FoodFilter{RestaurantID: restaurantID, AvailableOnly: !admin})
}

func (c *Catalog) AddRestaurant(ctx context.Context, rest domain.Restaurant) (string, error) {
	rest.Name = strings.TrimSpace(rest.Name)
	if rest.Name == "" {
		return "", fmt.Errorf("%w: restaurant name is required", domain.ErrInvalidInput)
	}
	rest.ID = ""
	rest.IsActive = true

	id, err := c.store.CreateRestaurant(ctx, &rest)
	if err != nil {
		return "", err
	}
	c.refreshAfter(ctx, "add restaurant")
	return id, nil
}

func (c *Catalog) UpdateRestaurant(ctx context.Context, id string, patch domain.RestaurantPatch) error {
	if id == "" {
		return fmt.Errorf("%w: restaurant id is required", domain.ErrInvalidInput)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: restaurant name is required", domain.ErrInvalidInput)
	}
	if err := c.store.UpdateRestaurant(ctx, id, patch); err != nil {
		return err
	}
	c.refreshAfter(ctx, "update restaurant")
	return nil
}

func (c *Catalog) DeleteRestaurant(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: restaurant id is required", domain.ErrInvalidInput)
	}
	if err := c.store.DeleteRestaurant(ctx, id); err != nil {
		return err
	}
	c.refreshAfter(ctx, "delete restaurant")
	return nil
}

func (c *Catalog) AddCategory(ctx context.Context, name, icon string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	id, err := c.store.CreateCategory(ctx, &domain.Category{Name: name, Icon: icon})
	if err != nil {
		return "", err
	}
	c.refreshAfter(ctx, "add category")
	return id, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error {
	if id == "" {
		return fmt.Errorf("%w: category id is required", domain.ErrInvalidInput)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if err := c.store.UpdateCategory(ctx, id, patch); err != nil {
		return err
	}
	c.refreshAfter(ctx, "update category")
	return nil
}

func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: category id is required", domain.ErrInvalidInput)
	}
	if err := c.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	c.refreshAfter(ctx, "delete category")
	return nil
}

// AddMenuItem creates an available item owned by restaurantID.
func (c *Catalog) AddMenuItem(ctx context.Context, restaurantID string, food domain.FoodItem) (string, error) {
	food.Name = strings.TrimSpace(food.Name)
	if food.Name == "" || restaurantID == "" {
		return "", fmt.Errorf("%w: menu item needs a name and a restaurant", domain.ErrInvalidInput)
	}
	if food.Price < 0 {
		return "", fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	food.ID = ""
	food.RestaurantID = restaurantID
	food.IsAvailable = true

	id, err := c.store.CreateFood(ctx, &food)
	if err != nil {
		return "", err
	}
	c.refreshAfter(ctx, "add menu item")
	return id, nil
}

func (c *Catalog) UpdateMenuItem(ctx context.Context, id string, patch domain.FoodPatch) error {
	if id == "" {
		return fmt.Errorf("%w: menu item id is required", domain.ErrInvalidInput)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: menu item name is required", domain.ErrInvalidInput)
	}
	if patch.Price != nil && *patch.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	if err := c.store.UpdateFood(ctx, id, patch); err != nil {
		return err
	}
	c.refreshAfter(ctx, "update menu item")
	return nil
}

func (c *Catalog) DeleteMenuItem(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: menu item id is required", domain.ErrInvalidInput)
	}
	if err := c.store.DeleteFood(ctx, id); err != nil {
		return err
	}
	c.refreshAfter(ctx, "delete menu item")
	return nil
}

func (c *Catalog) ToggleUserStatus(ctx context.Context, userID string, isActive bool) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if err := c.store.SetProfileFields(ctx, userID, domain.ProfilePatch{IsActive: &isActive}); err != nil {
		return err
	}
	c.refreshAfter(ctx, "toggle user status")
	return nil
}

// PlaceOrder submits every draft as an independent Pending order. The
// returned slice has one result per draft, in input order; a failed draft
// never stops the remaining ones. The error is only set when nothing could
// be attempted.
func (c *Catalog) PlaceOrder(ctx context.Context, drafts []domain.OrderDraft) ([]domain.PlacementResult, error) {
	identity := c.session.Identity()
	if identity == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: nothing to order", domain.ErrInvalidInput)
	}

	results := make([]domain.PlacementResult, 0, len(drafts))
	for _, draft := range drafts {
		result := domain.PlacementResult{RestaurantID: draft.RestaurantID}

		order, err := c.buildOrder(identity, draft)
		if err == nil {
			result.OrderID, err = c.store.CreateOrder(ctx, order)
			if err != nil {
				err = fmt.Errorf("create order: %w", err)
			}
		}
		result.Err = err
		metrics.RecordOrderPlaced(err == nil)

		if err != nil {
			c.logger.WithError(err).WithField("restaurant_id", draft.RestaurantID).Warn("order draft failed")
		} else {
			c.publish(ctx, domain.OrderEvent{
				Type:         domain.EventOrderPlaced,
				OrderID:      result.OrderID,
				UserID:       order.UserID,
				RestaurantID: order.RestaurantID,
				TotalAmount:  order.TotalAmount,
				Status:       order.Status,
				Timestamp:    time.Now(),
			})
		}
		results = append(results, result)
	}
	return results, nil
}

func (c *Catalog) buildOrder(identity *domain.Identity, draft domain.OrderDraft) (*domain.Order, error) {
	if draft.RestaurantID == "" {
		return nil, fmt.Errorf("%w: draft has no restaurant", domain.ErrInvalidInput)
	}
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("%w: draft for restaurant %s is empty", domain.ErrInvalidInput, draft.RestaurantID)
	}
	for _, item := range draft.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			return nil, fmt.Errorf("%w: bad line %q in draft for restaurant %s", domain.ErrInvalidInput, item.Name, draft.RestaurantID)
		}
	}

	restaurantName := draft.RestaurantName
	if restaurantName == "" {
		restaurantName = unknownRestaurant
		if rest, ok := c.Restaurant(draft.RestaurantID); ok {
			restaurantName = rest.Name
		}
	}
	address := identity.Address
	if address == "" {
		address = pickUpAddress
	}

	items := append([]domain.OrderItem(nil), draft.Items...)
	return &domain.Order{
		UserID:         identity.ID,
		UserName:       identity.Name,
		RestaurantID:   draft.RestaurantID,
		RestaurantName: restaurantName,
		Items:          items,
		TotalAmount:    domain.SumItems(items),
		Status:         domain.StatusPending,
		Address:        address,
	}, nil
}

// Checkout places one order per restaurant in the cart and removes the
// entries of every restaurant whose order was created. Entries of failed
// drafts stay in the cart.
func (c *Catalog) Checkout(ctx context.Context, cart *Cart) ([]domain.PlacementResult, error) {
	if c.session.Identity() == nil {
		return nil, domain.ErrNotAuthenticated
	}
	drafts := cart.GroupByRestaurant()
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}
	for i := range drafts {
		drafts[i].RestaurantName = unknownRestaurant
		if rest, ok := c.Restaurant(drafts[i].RestaurantID); ok {
			drafts[i].RestaurantName = rest.Name
		}
	}

	results, err := c.PlaceOrder(ctx, drafts)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if result.OK() {
			cart.RemoveRestaurant(result.RestaurantID)
		}
	}
	return results, nil
}

// UpdateOrderStatus accepts any of the known statuses from any other; there
// is no transition graph.
func (c *Catalog) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, status)
	}
	if err := c.store.UpdateOrder(ctx, orderID, domain.OrderPatch{Status: &status}); err != nil {
		return err
	}

	c.publish(ctx, domain.OrderEvent{
		Type:      domain.EventStatusChanged,
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now(),
	})
	return nil
}

func (c *Catalog) publish(ctx context.Context, event domain.OrderEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishOrderEvent(ctx, event); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{"order_id": event.OrderID, "type": event.Type}).Warn("failed to publish order event")
	}
}

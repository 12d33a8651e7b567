package service

import (
	"context"

	"foodcourt/app-svc/internal/domain"
)

// Store access layer. Every call either returns data or fails with the
// backend's error; nothing here retries or caches.

type RestaurantRepository interface {
	ListRestaurants(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	CreateRestaurant(ctx context.Context, rest *domain.Restaurant) (string, error)
	UpdateRestaurant(ctx context.Context, id string, patch domain.RestaurantPatch) error
	DeleteRestaurant(ctx context.Context, id string) error
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) (string, error)
	UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error
	DeleteCategory(ctx context.Context, id string) error
}

type FoodRepository interface {
	ListFoods(ctx context.Context, filter domain.FoodFilter) ([]domain.FoodItem, error)
	GetFood(ctx context.Context, id string) (*domain.FoodItem, error)
	CreateFood(ctx context.Context, food *domain.FoodItem) (string, error)
	UpdateFood(ctx context.Context, id string, patch domain.FoodPatch) error
	DeleteFood(ctx context.Context, id string) error
}

// Unsubscribe is idempotent. Once it returns no further callback starts.
// It must not be called from inside the callback it cancels.
type Unsubscribe func()

type OrderRepository interface {
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) (string, error)
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error
	DeleteOrder(ctx context.Context, id string) error
}

// OrderSubscriber delivers the full matching snapshot, newest first, once on
// subscribe and again after every change to a matching order.
type OrderSubscriber interface {
	SubscribeOrders(ctx context.Context, filter domain.OrderFilter, onChange func([]domain.Order)) (Unsubscribe, error)
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, id string, profile domain.Identity) error
	GetProfile(ctx context.Context, id string) (*domain.Identity, error)
	ListProfiles(ctx context.Context) ([]domain.Identity, error)
	SetProfileFields(ctx context.Context, id string, patch domain.ProfilePatch) error
}

// Store is everything the catalog aggregator needs from the backend.
type Store interface {
	RestaurantRepository
	CategoryRepository
	FoodRepository
	OrderRepository
	OrderSubscriber
	ProfileStore
}

type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Credential, error)
	CreateAccount(ctx context.Context, email, password string) (*domain.Credential, error)
	// CurrentIdentityChanges yields the current credential first (nil when
	// signed out) and then every change until ctx is done.
	CurrentIdentityChanges(ctx context.Context) <-chan *domain.Credential
	SignOut(ctx context.Context) error
}

// SessionStorage is device-local persistence for the serialized session.
// Get returns domain.ErrNotFound when nothing is stored.
type SessionStorage interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, serialized string) error
	Clear(ctx context.Context) error
}

type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

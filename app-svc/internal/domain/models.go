package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	IsActive bool   `json:"is_active"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Credential is what the identity provider knows about an account.
type Credential struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Restaurant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Rating       float64   `json:"rating,omitempty"`
	Categories   []string  `json:"categories"`
	DeliveryTime string    `json:"delivery_time"`
	Image        string    `json:"image"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type FoodItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Image        string    `json:"image,omitempty"`
	CategoryID   string    `json:"category_id"`
	RestaurantID string    `json:"restaurant_id"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
}

type CartEntry struct {
	ID           string  `json:"id"`
	MenuItemID   string  `json:"menu_item_id"`
	RestaurantID string  `json:"restaurant_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	UserName       string      `json:"user_name"`
	RestaurantID   string          `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
	Items          []OrderItem `json:"items"`
	TotalAmount    float64     `json:"total_amount"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	Address        string      `json:"address"`
}

type OrderItem struct {
	FoodID   string  `json:"food_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderDraft is an unpersisted, single-restaurant group of cart entries.
type OrderDraft struct {
	RestaurantID   string      `json:"restaurant_id"`
	RestaurantName string      `json:"restaurant_name"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// PlacementResult is the outcome of one draft in a checkout.
type PlacementResult struct {
	RestaurantID string `json:"restaurant_id"`
	OrderID      string `json:"order_id,omitempty"`
	Err          error  `json:"-"`
}

func (r PlacementResult) OK() bool {
	return r.Err == nil
}

// OrderEvent is published for every placed order and status change.
type OrderEvent struct {
	Type         string      `json:"type"`
	OrderID      string      `json:"order_id"`
	UserID       string      `json:"user_id"`
	RestaurantID string      `json:"restaurant_id"`
	TotalAmount  float64     `json:"total_amount"`
	Status       OrderStatus `json:"status"`
	Timestamp    time.Time   `json:"timestamp"`
}

const (
	EventOrderPlaced   = "order_placed"
	EventStatusChanged = "order_status_changed"
)

type DashboardStats struct {
	TotalOrders   int     `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	Users         int     `json:"users"`
	PendingOrders int     `json:"pending_orders"`
}

package domain

import "time"

const (
	EventOrderPlaced   = "order_placed"
	EventStatusChanged = "order_status_changed"
)

// OrderEvent is the payload app-svc publishes on the order events topic.
type OrderEvent struct {
	Type         string    `json:"type"`
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	RestaurantID string    `json:"restaurant_id"`
	TotalAmount  float64   `json:"total_amount"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyRecorded = errors.New("order already recorded")
)

type RestaurantPopularity struct {
	RestaurantID string  `json:"restaurant_id"`
	Orders       float64 `json:"orders"`
}

type DailySummary struct {
	Date    string  `json:"date"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// OrderSnapshot is the short-lived per-order hash kept while an order is active.
type OrderSnapshot struct {
	OrderID      string  `json:"order_id"`
	RestaurantID string  `json:"restaurant_id"`
	TotalAmount  float64 `json:"total_amount"`
	Status       string  `json:"status"`
	LastUpdated  int64   `json:"last_updated"`
}

package service

import (
	"strings"

	"foodcourt/app-svc/internal/domain"
)

// Stats summarizes the current order and user mirrors for the admin dashboard.
func (c *Catalog) Stats() domain.DashboardStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := domain.DashboardStats{
		TotalOrders:  len(c.orders),
		TotalRevenue: domain.SumRevenue(c.orders),
		Users:        len(c.users),
	}
	for _, order := range c.orders {
		if order.Status == domain.StatusPending {
			stats.PendingOrders++
		}
	}
	return stats
}

// SearchRestaurants matches the restaurant name or the name of any of its
// menu items, case-insensitively. An empty query returns every restaurant.
func (c *Catalog) SearchRestaurants(query string) []domain.Restaurant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return append([]domain.Restaurant(nil), c.restaurants...)
	}

	menuHit := make(map[string]bool)
	for _, food := range c.foods {
		if strings.Contains(strings.ToLower(food.Name), needle) {
			menuHit[food.RestaurantID] = true
		}
	}

	var matches []domain.Restaurant
	for _, rest := range c.restaurants {
		if menuHit[rest.ID] || strings.Contains(strings.ToLower(rest.Name), needle) {
			matches = append(matches, rest)
		}
	}
	return matches
}

// SearchFoods matches the item name or the name of its restaurant.
func (c *Catalog) SearchFoods(query string) []domain.FoodItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return append([]domain.FoodItem(nil), c.foods...)
	}

	restaurantNames := make(map[string]string, len(c.restaurants))
	for _, rest := range c.restaurants {
		restaurantNames[rest.ID] = strings.ToLower(rest.Name)
	}

	var matches []domain.FoodItem
	for _, food := range c.foods {
		if strings.Contains(strings.ToLower(food.Name), needle) ||
			strings.Contains(restaurantNames[food.RestaurantID], needle) {
			matches = append(matches, food)
		}
	}
	return matches
}

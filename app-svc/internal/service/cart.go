package service

import (
	"fmt"
	"sync"

	"foodcourt/app-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart holds the pending order of one customer. It never touches the network.
type Cart struct {
	mu      sync.RWMutex
	entries []domain.CartEntry
	newID   func() string
}

func NewCart() *Cart {
	return &Cart{newID: uuid.NewString}
}

// NewCartWithIDs is NewCart with a custom entry id generator.
func NewCartWithIDs(newID func() string) *Cart {
	return &Cart{newID: newID}
}

// AddItem merges the entry into an existing (menu item, restaurant) pair or
// appends it under a fresh id. It returns the id of the affected entry.
func (c *Cart) AddItem(entry domain.CartEntry) (string, error) {
	if entry.MenuItemID == "" || entry.RestaurantID == "" {
		return "", fmt.Errorf("%w: menu item and restaurant are required", domain.ErrInvalidInput)
	}
	if entry.Quantity <= 0 {
		return "", fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	if entry.Price < 0 {
		return "", fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].MenuItemID == entry.MenuItemID && c.entries[i].RestaurantID == entry.RestaurantID {
			c.entries[i].Quantity += entry.Quantity
			return c.entries[i].ID, nil
		}
	}

	entry.ID = c.newID()
	c.entries = append(c.entries, entry)
	return entry.ID, nil
}

// UpdateQuantity removes the entry when quantity drops to zero or below.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.removeLocked(id)
		return
	}
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

// RemoveRestaurant drops every entry of one restaurant, used after a
// successful per-restaurant checkout.
func (c *Cart) RemoveRestaurant(restaurantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	for _, entry := range c.entries {
		if entry.RestaurantID != restaurantID {
			kept = append(kept, entry)
		}
	}
	c.entries = kept
}

func (c *Cart) ClearCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

func (c *Cart) removeLocked(id string) {
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

func (c *Cart) Items() []domain.CartEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.CartEntry(nil), c.entries...)
}

func (c *Cart) TotalAmount() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.SumEntries(c.entries)
}

func (c *Cart) TotalItems() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, entry := range c.entries {
		total += entry.Quantity
	}
	return total
}

// GroupByRestaurant produces one draft per restaurant, in order of first
// appearance in the cart. Restaurant names are left for the caller to fill.
func (c *Cart) GroupByRestaurant() []domain.OrderDraft {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index := make(map[string]int)
	var drafts []domain.OrderDraft

	for _, entry := range c.entries {
		pos, ok := index[entry.RestaurantID]
		if !ok {
			pos = len(drafts)
			index[entry.RestaurantID] = pos
			drafts = append(drafts, domain.OrderDraft{RestaurantID: entry.RestaurantID, Subtotal: decimal.Zero})
		}
		drafts[pos].Items = append(drafts[pos].Items, domain.OrderItem{
			FoodID:   entry.MenuItemID,
			Name:     entry.Name,
			Quantity: entry.Quantity,
			Price:    entry.Price,
		})
		drafts[pos].Subtotal = drafts[pos].Subtotal.Add(domain.LineTotal(entry.Price, entry.Quantity))
	}
	return drafts
}

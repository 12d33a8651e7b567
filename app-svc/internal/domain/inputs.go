package domain

import "strings"

// RestaurantFilter selects the customer (active only) or admin (all) read path.
type RestaurantFilter struct {
	ActiveOnly bool
}

type FoodFilter struct {
	RestaurantID  string
	AvailableOnly bool
}

// OrderFilter with an empty UserID matches every order.
type OrderFilter struct {
	UserID string
}

func (f OrderFilter) Matches(o Order) bool {
	return f.UserID == "" || o.UserID == f.UserID
}

type RestaurantPatch struct {
	Name         *string   `json:"name,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Categories   *[]string `json:"categories,omitempty"`
	DeliveryTime *string   `json:"delivery_time,omitempty"`
	Image        *string   `json:"image,omitempty"`
	IsActive     *bool     `json:"is_active,omitempty"`
}

func (p RestaurantPatch) Apply(r *Restaurant) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Categories != nil {
		r.Categories = append([]string(nil), (*p.Categories)...)
	}
	if p.DeliveryTime != nil {
		r.DeliveryTime = *p.DeliveryTime
	}
	if p.Image != nil {
		r.Image = *p.Image
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
}

type CategoryPatch struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
}

type FoodPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Image       *string  `json:"image,omitempty"`
	CategoryID  *string  `json:"category_id,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
}

func (p FoodPatch) Apply(f *FoodItem) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.Image != nil {
		f.Image = *p.Image
	}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	if p.IsAvailable != nil {
		f.IsAvailable = *p.IsAvailable
	}
}

// OrderPatch only carries status: orders are otherwise immutable once placed.
type OrderPatch struct {
	Status *OrderStatus `json:"status,omitempty"`
}

func (p OrderPatch) Apply(o *Order) {
	if p.Status != nil {
		o.Status = *p.Status
	}
}

// ProfilePatch covers the mutable identity fields plus the admin-owned active flag.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (p ProfilePatch) Apply(i *Identity) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Phone != nil {
		i.Phone = *p.Phone
	}
	if p.Address != nil {
		i.Address = *p.Address
	}
	if p.IsActive != nil {
		i.IsActive = *p.IsActive
	}
}

// ParseCategories splits a comma separated list, dropping blanks.
func ParseCategories(raw string) []string {
	var categories []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	return categories
}

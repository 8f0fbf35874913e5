package model

import "time"

// MenuItem is a dish on a menu.  Price is stored in cents to avoid float
// rounding in the database; the JSON representation is a decimal price.
type MenuItem struct {
	ID          uint64    `json:"id"`
	MenuID      uint64    `json:"menuId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"-"`
	Price       float64   `json:"price"`
	Category    string    `json:"category,omitempty"`
	Calories    int       `json:"calories,omitempty"`
	Allergens   []string  `json:"allergens"`
	Tags        []string  `json:"tags"`
	IsAvailable bool      `json:"isAvailable"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SyncPrice recomputes the decimal Price from PriceCents for JSON output.
func (m *MenuItem) SyncPrice() { m.Price = float64(m.PriceCents) / 100.0 }

package model

import "time"

// Menu belongs to exactly one restaurant.  Items is a loaded relation, not an
// embedded value: list queries leave it empty, detail queries populate it.
// QRCodeURL points at the rendered code in object storage once generated.
type Menu struct {
	ID           uint64     `json:"id"`
	RestaurantID uint64     `json:"restaurantId"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	IsActive     bool       `json:"isActive"`
	Categories   []string   `json:"categories"`
	ImageURLs    []string   `json:"imageUrls"`
	QRCodeURL    string     `json:"qrCodeUrl,omitempty"`
	Items        []MenuItem `json:"menuItems"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

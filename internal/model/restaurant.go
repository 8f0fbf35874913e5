package model

import "time"

// Restaurant is a venue owned by exactly one user.  Contact and location
// fields mirror columns of the `restaurants` table; Hours carries the weekly
// opening-hours table (always exactly 7 entries, one per day 0–6).
type Restaurant struct {
	ID          uint64        `json:"id"`
	OwnerID     uint64        `json:"ownerId"`
	Name        string        `json:"name"`
	Phone       string        `json:"phone,omitempty"`
	Email       string        `json:"email,omitempty"`
	Website     string        `json:"website,omitempty"`
	Street      string        `json:"street"`
	HouseNumber string        `json:"houseNumber"`
	City        string        `json:"city"`
	Zip         string        `json:"zip"`
	LogoURL     string        `json:"logoUrl,omitempty"`
	IsActive    bool          `json:"isActive"`
	Hours       []OpeningHour `json:"hours"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// OpeningHour is one row of the weekly hours table.  Day runs 0 (Sunday)
// through 6.  Opens and Closes are "HH:MM" strings and are empty when the
// day is marked closed.
type OpeningHour struct {
	Day    int    `json:"day"`
	Closed bool   `json:"closed"`
	Opens  string `json:"opens,omitempty"`
	Closes string `json:"closes,omitempty"`
}

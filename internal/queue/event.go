// Package queue defines message payloads exchanged over the message broker.
package queue

// Catalog event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogEvent is published whenever a restaurant, menu or menu item
// changes. It carries enough information for downstream consumers to log,
// notify, or rebuild search indexes without querying the primary database.
type CatalogEvent struct {
	Entity       string `json:"entity"` // "restaurant", "menu" or "menu_item"
	Action       string `json:"action"` // "created", "updated" or "deleted"
	EntityID     uint64 `json:"entity_id"`
	RestaurantID uint64 `json:"restaurant_id"`
	ActorID      uint64 `json:"actor_id"`
	Name         string `json:"name"`
	OccurredAt   string `json:"occurred_at"`
}

package domain

import "errors"

var ErrInvalidQuery = errors.New("invalid analytics query")

const (
	EventMenuView  = "menu_view"
	EventItemView  = "item_view"
	EventAddToCart = "add_to_cart"
	EventCheckout  = "checkout"
)

// EventTypes lists every event type in the order dashboards show them.
var EventTypes = []string{EventMenuView, EventItemView, EventAddToCart, EventCheckout}

// NoItem is the counter member for events that are not about one item.
const NoItem = "_"

const (
	SourceRedis    = "redis"
	SourcePostgres = "postgres"
)

type Summary struct {
	OwnerID string           `json:"owner_id"`
	Totals  map[string]int64 `json:"totals"`
	Source  string           `json:"source"`
}

type ItemScore struct {
	ItemID string  `json:"item_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

type DayCount struct {
	Date   string           `json:"date"`
	Counts map[string]int64 `json:"counts"`
}

// IsItemEvent reports whether events of this type always carry an item id.
func IsItemEvent(eventType string) bool {
	return eventType == EventItemView || eventType == EventAddToCart
}

// EmptyCounts returns a zeroed counter for every event type.
func EmptyCounts() map[string]int64 {
	counts := make(map[string]int64, len(EventTypes))
	for _, t := range EventTypes {
		counts[t] = 0
	}
	return counts
}

package domain

import (
	"errors"
	"time"
)

var ErrInvalidEvent = errors.New("invalid analytics event")

const (
	EventMenuView  = "menu_view"
	EventItemView  = "item_view"
	EventAddToCart = "add_to_cart"
	EventCheckout  = "checkout"
)

// NoItem is the counter member used for events that are not about one item.
const NoItem = "_"

// Event is one storefront analytics record as published on the menu-events topic.
type Event struct {
	Type       string    `json:"type"`
	OwnerID    string    `json:"owner_id"`
	ItemID     *string   `json:"item_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) Validate() error {
	if e.OwnerID == "" {
		return ErrInvalidEvent
	}
	switch e.Type {
	case EventMenuView, EventItemView, EventAddToCart, EventCheckout:
		return nil
	}
	return ErrInvalidEvent
}

// Member is the item id the event counts toward.
func (e Event) Member() string {
	if e.ItemID == nil || *e.ItemID == "" {
		return NoItem
	}
	return *e.ItemID
}

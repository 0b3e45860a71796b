package domain

import (
	"errors"
	"strings"
)

type Category string

const (
	CategoryFood    Category = "food"
	CategoryDrink   Category = "drink"
	CategorySnack   Category = "snack"
	CategoryDessert Category = "dessert"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryDrink, CategorySnack, CategoryDessert:
		return true
	}
	return false
}

var ErrInvalidItem = errors.New("invalid menu item")

type MenuItem struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Category    Category `json:"category"`
	ImageURL    *string  `json:"image_url"`
	Available   bool     `json:"available"`
	CreatedAt   int64    `json:"created_at"`
	Position    int      `json:"position"`
}

func (m MenuItem) Validate() error {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return invalid("name is required")
	case m.Price < 0:
		return invalid("price must be >= 0")
	case !m.Category.Valid():
		return invalid("unknown category " + string(m.Category))
	case m.Position < 0:
		return invalid("position must be >= 0")
	}
	return nil
}

// OptimisticMenuItem is a MenuItem as shown while a write is in flight. Pending and
// PreviewRef are cleared once the catalog service confirms the write.
type OptimisticMenuItem struct {
	MenuItem
	Pending    bool   `json:"pending"`
	PreviewRef string `json:"preview_ref,omitempty"`
}

type MenuItemPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Category    *Category `json:"category,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Available   *bool     `json:"available,omitempty"`
}

func (p MenuItemPatch) Validate() error {
	switch {
	case p.Name != nil && strings.TrimSpace(*p.Name) == "":
		return invalid("name is required")
	case p.Price != nil && *p.Price < 0:
		return invalid("price must be >= 0")
	case p.Category != nil && !p.Category.Valid():
		return invalid("unknown category " + string(*p.Category))
	}
	return nil
}

func (p MenuItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.ImageURL == nil && p.Available == nil
}

// Apply copies the set fields of p onto item.
func (p MenuItemPatch) Apply(item *MenuItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.ImageURL != nil {
		url := *p.ImageURL
		item.ImageURL = &url
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
}

type PositionPair struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Settings struct {
	OwnerID        string `json:"owner_id"`
	RestaurantName string `json:"restaurant_name"`
	Slug           string `json:"slug"`
	WhatsAppNumber string `json:"whatsapp_number"`
	Tagline        string `json:"tagline"`
}

type PublicMenu struct {
	Settings Settings   `json:"settings"`
	Items    []MenuItem `json:"items"`
}

const (
	EventMenuView  = "menu_view"
	EventItemView  = "item_view"
	EventAddToCart = "add_to_cart"
	EventCheckout  = "checkout"
)

type Event struct {
	Type    string  `json:"type"`
	OwnerID string  `json:"owner_id"`
	ItemID  *string `json:"item_id,omitempty"`
}

type invalidError struct {
	reason string
}

func (e *invalidError) Error() string { return ErrInvalidItem.Error() + ": " + e.reason }

func (e *invalidError) Unwrap() error { return ErrInvalidItem }

func invalid(reason string) error {
	return &invalidError{reason: reason}
}

package domain

import (
	"errors"
	"strings"
	"time"
)

type Category string

const (
	CategoryFood    Category = "food"
	CategoryDrink   Category = "drink"
	CategorySnack   Category = "snack"
	CategoryDessert Category = "dessert"
)

var Categories = []Category{CategoryFood, CategoryDrink, CategorySnack, CategoryDessert}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryDrink, CategorySnack, CategoryDessert:
		return true
	}
	return false
}

var (
	ErrInvalidItem    = errors.New("invalid menu item")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateSlug  = errors.New("slug is already taken")
	ErrDuplicateEmail = errors.New("email is already registered")
	ErrUnauthorized   = errors.New("unauthorized")
)

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

// Validate checks the fields a form submit must carry.
func (m *MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmtInvalid("name is required")
	}
	if m.Price < 0 {
		return fmtInvalid("price must be >= 0")
	}
	if !m.Category.Valid() {
		return fmtInvalid("unknown category " + string(m.Category))
	}
	if m.Position < 0 {
		return fmtInvalid("position must be >= 0")
	}
	return nil
}

type MenuItemPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Category    *Category `json:"category,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Available   *bool     `json:"available,omitempty"`
}

func (p *MenuItemPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmtInvalid("name is required")
	}
	if p.Price != nil && *p.Price < 0 {
		return fmtInvalid("price must be >= 0")
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmtInvalid("unknown category " + string(*p.Category))
	}
	return nil
}

func (p *MenuItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.ImageURL == nil && p.Available == nil
}

type PositionPair struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
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

type Event struct {
	Type       string    `json:"type"`
	OwnerID    string    `json:"owner_id"`
	ItemID     *string   `json:"item_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventMenuView  = "menu_view"
	EventItemView  = "item_view"
	EventAddToCart = "add_to_cart"
	EventCheckout  = "checkout"
)

func ValidEventType(t string) bool {
	switch t {
	case EventMenuView, EventItemView, EventAddToCart, EventCheckout:
		return true
	}
	return false
}

type invalidError struct {
	reason string
}

func (e *invalidError) Error() string { return ErrInvalidItem.Error() + ": " + e.reason }

func (e *invalidError) Unwrap() error { return ErrInvalidItem }

func fmtInvalid(reason string) error {
	return &invalidError{reason: reason}
}

// Package cart keeps a diner's selections on a public menu and turns them into
// a WhatsApp order message.
package cart

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"digital-menu/web-svc/internal/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tracker receives storefront analytics. Implementations must not block.
type Tracker interface {
	Track(ownerID, eventType, itemID string)
}

type Line struct {
	Item     domain.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
	Subtotal int64           `json:"subtotal"`
}

type Totals struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

// Aggregator is one diner's cart for one restaurant.
type Aggregator struct {
	ownerID string
	tracker Tracker

	mu         sync.Mutex
	quantities map[string]int
}

func NewAggregator(ownerID string, tracker Tracker) *Aggregator {
	return &Aggregator{
		ownerID:    ownerID,
		tracker:    tracker,
		quantities: make(map[string]int),
	}
}

// MaxQuantity caps a single cart line.
const MaxQuantity = 999

// Apply adds delta to the item's quantity and returns the new quantity. Reaching
// zero or below drops the line; the quantity saturates at MaxQuantity. An
// add_to_cart event fires only when the item goes from absent to present.
func (a *Aggregator) Apply(itemID string, delta int) int {
	a.mu.Lock()
	current := a.quantities[itemID]
	next := MaxQuantity
	if delta <= MaxQuantity-current {
		next = current + delta
	}
	if next <= 0 {
		delete(a.quantities, itemID)
		next = 0
	} else {
		a.quantities[itemID] = next
	}
	a.mu.Unlock()

	if current == 0 && next > 0 && a.tracker != nil {
		a.tracker.Track(a.ownerID, domain.EventAddToCart, itemID)
	}
	return next
}

func (a *Aggregator) Quantity(itemID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quantities[itemID]
}

func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quantities = make(map[string]int)
}

// Lines returns the cart in catalog display order. Items no longer on the menu
// are skipped.
func (a *Aggregator) Lines(items []domain.MenuItem) []Line {
	a.mu.Lock()
	defer a.mu.Unlock()

	lines := make([]Line, 0, len(a.quantities))
	for _, item := range items {
		qty := a.quantities[item.ID]
		if qty <= 0 {
			continue
		}
		lines = append(lines, Line{Item: item, Quantity: qty, Subtotal: item.Price * int64(qty)})
	}
	return lines
}

// Totals counts only items present in the catalog.
func (a *Aggregator) Totals(items []domain.MenuItem) Totals {
	var totals Totals
	for _, line := range a.Lines(items) {
		totals.Count += line.Quantity
		totals.Amount += line.Subtotal
	}
	return totals
}

// CheckoutMessage renders one line per item with its quantity and subtotal, followed
// by the grand total.
func (a *Aggregator) CheckoutMessage(items []domain.MenuItem) string {
	lines := a.Lines(items)
	out := make([]string, 0, len(lines)+1)
	var total int64
	for _, line := range lines {
		out = append(out, fmt.Sprintf("%s (%dx) — %s", line.Item.Name, line.Quantity, FormatRupiah(line.Subtotal)))
		total += line.Subtotal
	}
	out = append(out, "Total: "+FormatRupiah(total))
	return strings.Join(out, "\n")
}

// CheckoutLink is the WhatsApp link carrying CheckoutMessage.
func (a *Aggregator) CheckoutLink(phone string, items []domain.MenuItem) string {
	return CheckoutLink(phone, a.CheckoutMessage(items))
}

var rupiah = message.NewPrinter(language.Indonesian)

// FormatRupiah writes whole rupiah with Indonesian digit grouping, e.g. "Rp 30.000".
func FormatRupiah(amount int64) string {
	return "Rp " + rupiah.Sprintf("%d", amount)
}

// CheckoutLink builds the wa.me deep link for phone with text prefilled.
func CheckoutLink(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "https://wa.me/" + digits.String() + "?text=" + escaped
}

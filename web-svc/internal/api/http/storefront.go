package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"digital-menu/web-svc/internal/cart"
	"digital-menu/web-svc/internal/domain"

	"github.com/gorilla/mux"
)

const (
	sessionCookie = "menu_session"
	maxCartDelta  = 99
)

var (
	errItemNotOnMenu   = errors.New("item is not on this menu")
	errItemUnavailable = errors.New("item is currently unavailable")
	errEmptyCart       = errors.New("cart is empty")
)

type cartView struct {
	Lines  []cart.Line `json:"lines"`
	Totals cart.Totals `json:"totals"`
	Label  string      `json:"total_label"`
}

type storefrontView struct {
	Settings domain.Settings   `json:"settings"`
	Items    []domain.MenuItem `json:"items"`
	Cart     cartView          `json:"cart"`
}

type checkoutView struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

func newCartView(c *cart.Aggregator, items []domain.MenuItem) cartView {
	totals := c.Totals(items)
	return cartView{
		Lines:  c.Lines(items),
		Totals: totals,
		Label:  cart.FormatRupiah(totals.Amount),
	}
}

// sessionID returns the diner's browsing session, issuing a cookie on first visit.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := cart.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) loadMenu(w http.ResponseWriter, r *http.Request) (domain.PublicMenu, *cart.Aggregator, bool) {
	menu, err := h.Menus.PublicMenu(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return menu, nil, false
	}
	return menu, h.Carts.Cart(sessionID(w, r), menu.Settings.OwnerID), true
}

func (h *Handler) track(ownerID, eventType, itemID string) {
	if h.Tracker != nil {
		h.Tracker.Track(ownerID, eventType, itemID)
	}
}

func (h *Handler) getStorefront(w http.ResponseWriter, r *http.Request) {
	menu, c, ok := h.loadMenu(w, r)
	if !ok {
		return
	}
	h.track(menu.Settings.OwnerID, domain.EventMenuView, "")

	writeJSON(w, http.StatusOK, storefrontView{
		Settings: menu.Settings,
		Items:    menu.Items,
		Cart:     newCartView(c, menu.Items),
	})
}

func (h *Handler) getStorefrontItem(w http.ResponseWriter, r *http.Request) {
	menu, err := h.Menus.PublicMenu(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	item, ok := findItem(menu.Items, mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, errItemNotOnMenu)
		return
	}
	h.track(menu.Settings.OwnerID, domain.EventItemView, item.ID)
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	menu, c, ok := h.loadMenu(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCartView(c, menu.Items))
}

type cartRequest struct {
	ItemID string `json:"item_id"`
	Delta  int    `json:"delta"`
}

func (h *Handler) applyCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == 0 ||
		req.Delta > maxCartDelta || req.Delta < -maxCartDelta {
		http.Error(w, "invalid cart change", http.StatusBadRequest)
		return
	}

	menu, c, ok := h.loadMenu(w, r)
	if !ok {
		return
	}
	item, found := findItem(menu.Items, req.ItemID)
	if !found {
		h.writeError(w, errItemNotOnMenu)
		return
	}
	if req.Delta > 0 && !item.Available {
		h.writeError(w, errItemUnavailable)
		return
	}

	c.Apply(item.ID, req.Delta)
	writeJSON(w, http.StatusOK, newCartView(c, menu.Items))
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	menu, c, ok := h.loadMenu(w, r)
	if !ok {
		return
	}
	if c.Totals(menu.Items).Count == 0 {
		h.writeError(w, errEmptyCart)
		return
	}

	view := checkoutView{
		Message: c.CheckoutMessage(menu.Items),
		Link:    c.CheckoutLink(menu.Settings.WhatsAppNumber, menu.Items),
	}
	h.track(menu.Settings.OwnerID, domain.EventCheckout, "")
	writeJSON(w, http.StatusOK, view)
}

func findItem(items []domain.MenuItem, id string) (domain.MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.MenuItem{}, false
}

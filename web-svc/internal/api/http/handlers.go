package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"digital-menu/web-svc/internal/builder"
	"digital-menu/web-svc/internal/cart"
	"digital-menu/web-svc/internal/catalog"
	"digital-menu/web-svc/internal/domain"
	"digital-menu/web-svc/internal/gateway"
	"digital-menu/web-svc/internal/imaging"
	"digital-menu/web-svc/internal/mutation"
	"digital-menu/web-svc/internal/remote"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ctxKey int

const builderKey ctxKey = iota

// MenuSource serves public menus by slug.
type MenuSource interface {
	PublicMenu(ctx context.Context, slug string) (domain.PublicMenu, error)
}

var _ MenuSource = (*remote.Client)(nil)

type Handler struct {
	Builders *builder.Manager
	Menus    MenuSource
	Carts    *cart.Sessions
	Tracker  cart.Tracker
	Gateway  *gateway.Gateway
	Logger   *zap.Logger
}

func NewHandler(builders *builder.Manager, menus MenuSource, carts *cart.Sessions,
	tracker cart.Tracker, gw *gateway.Gateway, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Builders: builders,
		Menus:    menus,
		Carts:    carts,
		Tracker:  tracker,
		Gateway:  gw,
		Logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(h.requireBuilder)
	admin.HandleFunc("/menu", h.getBuilder).Methods("GET")
	admin.HandleFunc("/menu/reload", h.reloadBuilder).Methods("POST")
	admin.HandleFunc("/menu/items", h.createItem).Methods("POST")
	admin.HandleFunc("/menu/items/{id}", h.updateItem).Methods("PUT")
	admin.HandleFunc("/menu/items/{id}", h.deleteItem).Methods("DELETE")
	admin.HandleFunc("/menu/order", h.reorder).Methods("PUT")
	admin.HandleFunc("/menu/order/save", h.saveOrder).Methods("POST")
	admin.HandleFunc("/mutations/{id}", h.getMutation).Methods("GET")
	admin.HandleFunc("/notices", h.drainNotices).Methods("GET")
	admin.HandleFunc("/previews/{ref}", h.getPreview).Methods("GET")
	admin.HandleFunc("/session", h.closeBuilder).Methods("DELETE")

	r.HandleFunc("/menu/{slug}", h.getStorefront).Methods("GET")
	r.HandleFunc("/menu/{slug}/items/{id}", h.getStorefrontItem).Methods("GET")
	r.HandleFunc("/menu/{slug}/cart", h.getCart).Methods("GET")
	r.HandleFunc("/menu/{slug}/cart", h.applyCart).Methods("POST")
	r.HandleFunc("/menu/{slug}/checkout", h.checkout).Methods("POST")

	if h.Gateway != nil {
		r.PathPrefix("/").HandlerFunc(h.Gateway.RouteHandler)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (h *Handler) requireBuilder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		session, err := h.Builders.Open(r.Context(), token)
		if err != nil {
			h.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), builderKey, session)))
	})
}

func currentBuilder(r *http.Request) *builder.Session {
	session, _ := r.Context().Value(builderKey).(*builder.Session)
	return session
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps builder and storefront errors to status codes. Remote failures
// are reported generically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, mutation.ErrUnknownItem), errors.Is(err, errItemNotOnMenu):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, mutation.ErrItemPending), errors.Is(err, builder.ErrBusy),
		errors.Is(err, catalog.ErrReorderFiltered), errors.Is(err, catalog.ErrReorderPending),
		errors.Is(err, errItemUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidItem), errors.Is(err, mutation.ErrEmptyPatch),
		errors.Is(err, catalog.ErrSequenceMismatch), errors.Is(err, errBadForm), errors.Is(err, errEmptyCart),
		errors.Is(err, imaging.ErrUnreadableImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, catalog.ErrSaveOrder):
		http.Error(w, "Failed to save the new order", http.StatusBadGateway)
	case errors.Is(err, mutation.ErrClosed):
		http.Error(w, err.Error(), http.StatusGone)
	default:
		h.Logger.Error("request failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "web-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"digital-menu/analytics-svc/internal/domain"
	"digital-menu/analytics-svc/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultTopLimit = 5
	defaultDays     = 7
)

type Handler struct {
	Analytics service.AnalyticsInterface
	Logger    *zap.Logger
}

func NewHandler(svc service.AnalyticsInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Analytics: svc, Logger: logger}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/api/analytics/{ownerId}/summary", h.getSummary).Methods("GET")
	r.HandleFunc("/api/analytics/{ownerId}/top-items", h.getTopItems).Methods("GET")
	r.HandleFunc("/api/analytics/{ownerId}/daily", h.getDaily).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidQuery) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Error("analytics query failed", zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// intParam reads a positive integer query parameter, falling back to def when
// it is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrInvalidQuery
	}
	return n, nil
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Analytics.Summary(r.Context(), mux.Vars(r)["ownerId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) getTopItems(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultTopLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	eventType := r.URL.Query().Get("type")
	if eventType == "" {
		eventType = domain.EventAddToCart
	}

	items, err := h.Analytics.TopItems(r.Context(), mux.Vars(r)["ownerId"], eventType, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getDaily(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", defaultDays)
	if err != nil {
		h.writeError(w, err)
		return
	}

	series, err := h.Analytics.Daily(r.Context(), mux.Vars(r)["ownerId"], days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "analytics-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

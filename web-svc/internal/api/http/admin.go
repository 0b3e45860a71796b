package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"digital-menu/web-svc/internal/builder"
	"digital-menu/web-svc/internal/catalog"
	"digital-menu/web-svc/internal/domain"
	"digital-menu/web-svc/internal/mutation"

	"github.com/gorilla/mux"
)

const (
	maxFormBytes  = 20 << 20
	maxImageBytes = 10 << 20
)

var (
	errBadForm  = errors.New("invalid form")
	errTooLarge = errors.New("request is too large")
)

type builderView struct {
	Items        []domain.OptimisticMenuItem `json:"items"`
	Total        int                         `json:"total"`
	Filtered     bool                        `json:"filtered"`
	CanReorder   bool                        `json:"can_reorder"`
	OrderChanged bool                        `json:"order_changed"`
	Pending      int                         `json:"pending"`
	Version      uint64                      `json:"version"`
}

func filterFromQuery(r *http.Request) catalog.Filter {
	q := r.URL.Query()
	return catalog.Filter{
		Search:   q.Get("search"),
		Category: domain.Category(q.Get("category")),
	}
}

func viewOf(s *builder.Session, filter catalog.Filter) builderView {
	all := s.Store.Items()
	return builderView{
		Items:        filter.Apply(all),
		Total:        len(all),
		Filtered:     filter.Active(),
		CanReorder:   !filter.Active() && !hasPlaceholders(all),
		OrderChanged: s.Orderer.Changed(),
		Pending:      s.Queue.PendingCount(),
		Version:      s.Store.Version(),
	}
}

// hasPlaceholders reports whether an item is still waiting for its create to
// be confirmed. Such items have no stored position yet.
func hasPlaceholders(items []domain.OptimisticMenuItem) bool {
	for _, item := range items {
		if catalog.IsTempID(item.ID) {
			return true
		}
	}
	return false
}

func (h *Handler) getBuilder(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	if filter.Category != "" && !filter.Category.Valid() {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(currentBuilder(r), filter))
}

func (h *Handler) reloadBuilder(w http.ResponseWriter, r *http.Request) {
	s := currentBuilder(r)
	if err := s.Reload(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s, catalog.Filter{}))
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	s := currentBuilder(r)
	patch, img, err := parseItemForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	m, err := s.Queue.Create(draftFromPatch(patch), img)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, m)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	s := currentBuilder(r)
	patch, img, err := parseItemForm(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	m, err := s.Queue.Update(mux.Vars(r)["id"], patch, img)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, m)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	s := currentBuilder(r)
	m, err := s.Queue.Delete(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, m)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	s := currentBuilder(r)
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := s.Orderer.OnReorder(filterFromQuery(r), req.IDs); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s, catalog.Filter{}))
}

func (h *Handler) saveOrder(w http.ResponseWriter, r *http.Request) {
	s := currentBuilder(r)
	if err := s.Orderer.Persist(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s, catalog.Filter{}))
}

func (h *Handler) getMutation(w http.ResponseWriter, r *http.Request) {
	m, ok := currentBuilder(r).Queue.Get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) drainNotices(w http.ResponseWriter, r *http.Request) {
	notices := currentBuilder(r).Queue.DrainNotices()
	if notices == nil {
		notices = []mutation.Notice{}
	}
	writeJSON(w, http.StatusOK, notices)
}

func (h *Handler) getPreview(w http.ResponseWriter, r *http.Request) {
	preview, ok := currentBuilder(r).Queue.Previews().Get(mux.Vars(r)["ref"])
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(preview.Data)
}

func (h *Handler) closeBuilder(w http.ResponseWriter, r *http.Request) {
	h.Builders.Close(bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

// parseItemForm reads an item form sent either as JSON or as multipart with an
// optional "image" file. Only the fields present end up in the patch.
func parseItemForm(w http.ResponseWriter, r *http.Request) (domain.MenuItemPatch, *mutation.Image, error) {
	var patch domain.MenuItemPatch
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			return patch, nil, formError(err)
		}
		return patch, nil, nil
	}

	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		return patch, nil, formError(err)
	}
	form := r.MultipartForm.Value
	field := func(name string) (string, bool) {
		values, ok := form[name]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}

	if v, ok := field("name"); ok {
		patch.Name = &v
	}
	if v, ok := field("description"); ok {
		patch.Description = &v
	}
	if v, ok := field("price"); ok {
		price, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return patch, nil, fmt.Errorf("%w: price must be a whole number", errBadForm)
		}
		patch.Price = &price
	}
	if v, ok := field("category"); ok {
		category := domain.Category(v)
		patch.Category = &category
	}
	if v, ok := field("available"); ok {
		available := v == "true" || v == "on" || v == "1"
		patch.Available = &available
	}

	var img *mutation.Image
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			return patch, nil, err
		}
		if len(data) > maxImageBytes {
			return patch, nil, fmt.Errorf("%w: image is larger than %d bytes", errTooLarge, maxImageBytes)
		}
		img = &mutation.Image{Data: data}
	}
	return patch, img, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", errTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", errBadForm, err)
}

// draftFromPatch builds a new item from a create form. Availability defaults
// to true.
func draftFromPatch(p domain.MenuItemPatch) domain.MenuItem {
	item := domain.MenuItem{Available: true}
	p.Apply(&item)
	return item
}

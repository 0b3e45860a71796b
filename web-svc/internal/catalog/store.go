// Package catalog holds the builder's in-memory view of an owner's menu: the
// ordered item list, search and category filtering, and drag-and-drop ordering.
package catalog

import (
	"strings"
	"sync"

	"digital-menu/web-svc/internal/domain"

	"github.com/google/uuid"
)

const TempIDPrefix = "temp-"

func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Store is the ordered item list for one builder session. Every method takes the
// lock, so a mutation completion and a user action never interleave mid-update.
type Store struct {
	mu      sync.RWMutex
	items   []domain.OptimisticMenuItem
	version uint64
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces the list with items in the order given.
func (s *Store) Load(items []domain.MenuItem) {
	next := make([]domain.OptimisticMenuItem, 0, len(items))
	for _, item := range items {
		next = append(next, domain.OptimisticMenuItem{MenuItem: cloneItem(item)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
	s.version++
}

// InsertOptimistic prepends item under a fresh temporary id and returns that id.
func (s *Store) InsertOptimistic(item domain.OptimisticMenuItem) string {
	tempID := TempIDPrefix + uuid.NewString()
	item.MenuItem = cloneItem(item.MenuItem)
	item.ID = tempID
	item.Pending = true

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.OptimisticMenuItem{item}, s.items...)
	s.version++
	return tempID
}

// ConfirmCreate swaps the placeholder at tempID for the stored item, in place.
func (s *Store) ConfirmCreate(tempID string, final domain.MenuItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(tempID)
	if i < 0 {
		return false
	}
	s.items[i] = domain.OptimisticMenuItem{MenuItem: cloneItem(final)}
	s.version++
	return true
}

// ConfirmUpdate merges patch into the item and clears its pending state.
// Unknown ids are ignored.
func (s *Store) ConfirmUpdate(id string, patch domain.MenuItemPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	patch.Apply(&s.items[i].MenuItem)
	s.items[i].Pending = false
	s.items[i].PreviewRef = ""
	s.version++
	return true
}

func (s *Store) RollbackCreate(tempID string) bool {
	return s.Remove(tempID)
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.version++
	return true
}

// BeginUpdate shows patch on the item right away and marks it pending. It returns
// the item as it was so a failed write can be reverted.
func (s *Store) BeginUpdate(id string, patch domain.MenuItemPatch, previewRef string) (domain.OptimisticMenuItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.OptimisticMenuItem{}, false
	}
	before := cloneOptimistic(s.items[i])
	patch.Apply(&s.items[i].MenuItem)
	s.items[i].Pending = true
	if previewRef != "" {
		s.items[i].PreviewRef = previewRef
	}
	s.version++
	return before, true
}

// RevertItem puts back a copy returned by BeginUpdate.
func (s *Store) RevertItem(before domain.OptimisticMenuItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(before.ID)
	if i < 0 {
		return false
	}
	s.items[i] = cloneOptimistic(before)
	s.version++
	return true
}

// Reorder arranges the list to match ids and renumbers positions from zero.
// ids must name every item exactly once.
func (s *Store) Reorder(ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) != len(s.items) {
		return false
	}
	byID := make(map[string]domain.OptimisticMenuItem, len(s.items))
	for _, item := range s.items {
		byID[item.ID] = item
	}
	next := make([]domain.OptimisticMenuItem, 0, len(ids))
	for i, id := range ids {
		item, ok := byID[id]
		if !ok {
			return false
		}
		delete(byID, id)
		item.Position = i
		next = append(next, item)
	}
	s.items = next
	s.version++
	return true
}

func (s *Store) Snapshot() []domain.OptimisticMenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.items)
}

// Restore replaces the whole list with a Snapshot result.
func (s *Store) Restore(snapshot []domain.OptimisticMenuItem) {
	next := cloneAll(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
	s.version++
}

func (s *Store) Items() []domain.OptimisticMenuItem {
	return s.Snapshot()
}

func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.items))
	for i, item := range s.items {
		ids[i] = item.ID
	}
	return ids
}

func (s *Store) Get(id string) (domain.OptimisticMenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.OptimisticMenuItem{}, false
	}
	return cloneOptimistic(s.items[i]), true
}

func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.Pending {
			return true
		}
	}
	return false
}

// Version increases on every change to the list.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneItem(item domain.MenuItem) domain.MenuItem {
	if item.ImageURL != nil {
		url := *item.ImageURL
		item.ImageURL = &url
	}
	return item
}

func cloneOptimistic(item domain.OptimisticMenuItem) domain.OptimisticMenuItem {
	item.MenuItem = cloneItem(item.MenuItem)
	return item
}

func cloneAll(items []domain.OptimisticMenuItem) []domain.OptimisticMenuItem {
	out := make([]domain.OptimisticMenuItem, len(items))
	for i, item := range items {
		out[i] = cloneOptimistic(item)
	}
	return out
}

package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"digital-menu/web-svc/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrReorderFiltered  = errors.New("clear search and category filter to reorder")
	ErrReorderPending   = errors.New("wait for pending changes before reordering")
	ErrSequenceMismatch = errors.New("sequence does not match the current menu")
	ErrSaveOrder        = errors.New("failed to save the new order")
)

// ComputeOrder numbers ids by their index in the sequence.
func ComputeOrder(ids []string) []domain.PositionPair {
	pairs := make([]domain.PositionPair, len(ids))
	for i, id := range ids {
		pairs[i] = domain.PositionPair{ID: id, Position: i}
	}
	return pairs
}

// Move returns a copy of seq with the element at from relocated to to.
// Out of range indexes return an unchanged copy.
func Move[T any](seq []T, from, to int) []T {
	out := make([]T, len(seq))
	copy(out, seq)
	if from < 0 || from >= len(seq) || to < 0 || to >= len(seq) || from == to {
		return out
	}
	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// Filter narrows the builder list by a name/description search and a category.
// An empty Category means all categories.
type Filter struct {
	Search   string
	Category domain.Category
}

func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" || f.Category != ""
}

func (f Filter) Matches(item domain.MenuItem) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.Description), q)
}

func (f Filter) Apply(items []domain.OptimisticMenuItem) []domain.OptimisticMenuItem {
	out := make([]domain.OptimisticMenuItem, 0, len(items))
	for _, item := range items {
		if f.Matches(item.MenuItem) {
			out = append(out, item)
		}
	}
	return out
}

type PositionWriter interface {
	SetPositions(ctx context.Context, pairs []domain.PositionPair) error
}

// Reorderer applies drag results to a Store and persists the order on demand.
type Reorderer struct {
	store   *Store
	remote  PositionWriter
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	changed   bool
	persisted []string
}

func NewReorderer(store *Store, remote PositionWriter, timeout time.Duration, logger *zap.Logger) *Reorderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reorderer{
		store:     store,
		remote:    remote,
		timeout:   timeout,
		logger:    logger,
		persisted: store.IDs(),
	}
}

// Reset takes the store's current order as the saved one.
func (r *Reorderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = false
	r.persisted = r.store.IDs()
}

// OnReorder applies a dragged sequence. Reordering a filtered view is refused
// because positions would be assigned against a partial list.
func (r *Reorderer) OnReorder(filter Filter, ids []string) error {
	if filter.Active() {
		return ErrReorderFiltered
	}
	for _, id := range ids {
		if IsTempID(id) {
			return ErrReorderPending
		}
	}
	if !r.store.Reorder(ids) {
		return ErrSequenceMismatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Equal(ids, r.persisted) {
		r.changed = true
	}
	return nil
}

func (r *Reorderer) Changed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Persist sends the whole current order in one call. The changed flag is only
// cleared when the catalog service accepts it.
func (r *Reorderer) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.changed {
		return nil
	}
	ids := r.store.IDs()
	for _, id := range ids {
		if IsTempID(id) {
			return ErrReorderPending
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.remote.SetPositions(ctx, ComputeOrder(ids)); err != nil {
		r.logger.Error("failed to save menu order", zap.Int("items", len(ids)), zap.Error(err))
		return ErrSaveOrder
	}

	r.changed = false
	r.persisted = ids
	return nil
}

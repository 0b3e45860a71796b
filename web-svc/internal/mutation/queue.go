// Package mutation applies builder edits to the catalog store immediately and
// reconciles them with the catalog service in the background.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"digital-menu/web-svc/internal/catalog"
	"digital-menu/web-svc/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrItemPending = errors.New("item has a change in flight")
	ErrUnknownItem = errors.New("item is not in the menu")
	ErrClosed      = errors.New("builder session is closed")
	ErrEmptyPatch  = errors.New("nothing to update")
)

const (
	DefaultMetadataTimeout = 10 * time.Second
	DefaultUploadTimeout   = 60 * time.Second

	maxRecords = 200
)

type State int

const (
	Pending State = iota
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Mutation is the status of one submitted edit. ItemID starts as the temporary
// id for creates and becomes the stored id once confirmed.
type Mutation struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	SettledAt time.Time `json:"settled_at,omitempty"`
}

// Notice is a user-facing message about a rolled back edit.
type Notice struct {
	MutationID string    `json:"mutation_id"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

type Remote interface {
	Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	Update(ctx context.Context, id string, patch domain.MenuItemPatch) error
	Delete(ctx context.Context, id string) error
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type ImageProcessor interface {
	Process(data []byte) ([]byte, string, error)
}

// Image is a raw file picked in the item form.
type Image struct {
	Data []byte
}

type Config struct {
	MetadataTimeout time.Duration
	UploadTimeout   time.Duration
}

type Queue struct {
	store    *catalog.Store
	remote   Remote
	uploader Uploader
	images   ImageProcessor
	previews *Previews
	cfg      Config
	logger   *zap.Logger

	mu       sync.Mutex
	closed   bool
	inflight map[string]string
	records  map[string]*Mutation
	promoted map[string]string
	order    []string
	notices  []Notice
	wg       sync.WaitGroup
}

func NewQueue(store *catalog.Store, remote Remote, uploader Uploader, images ImageProcessor, cfg Config, logger *zap.Logger) *Queue {
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		store:    store,
		remote:   remote,
		uploader: uploader,
		images:   images,
		previews: NewPreviews(),
		cfg:      cfg,
		logger:   logger,
		inflight: make(map[string]string),
		records:  make(map[string]*Mutation),
		promoted: make(map[string]string),
	}
}

func (q *Queue) Previews() *Previews {
	return q.previews
}

// Create shows draft at the top of the list under a temporary id and saves it
// in the background. A failed upload or create removes the placeholder again.
func (q *Queue) Create(draft domain.MenuItem, img *Image) (Mutation, error) {
	if err := draft.Validate(); err != nil {
		return Mutation{}, err
	}
	data, contentType, err := q.prepare(img)
	if err != nil {
		return Mutation{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Mutation{}, ErrClosed
	}

	ref := q.preview(data, contentType)
	tempID := q.store.InsertOptimistic(domain.OptimisticMenuItem{MenuItem: draft, PreviewRef: ref})
	m := q.begin(KindCreate, tempID, draft.Name)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer q.previews.Release(ref)

		final, err := q.runCreate(draft, data, contentType)
		q.settle(m, err, func() {
			if err != nil {
				q.store.RollbackCreate(tempID)
				return
			}
			q.store.ConfirmCreate(tempID, final)
			q.promoted[tempID] = final.ID
			m.ItemID = final.ID
			q.logger.Info("menu item created", zap.String("id", final.ID))
		})
	}()
	return *m, nil
}

func (q *Queue) runCreate(draft domain.MenuItem, data []byte, contentType string) (domain.MenuItem, error) {
	if data != nil {
		url, err := q.upload(data, contentType)
		if err != nil {
			return domain.MenuItem{}, err
		}
		draft.ImageURL = &url
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.MetadataTimeout)
	defer cancel()
	return q.remote.Create(ctx, draft)
}

// Update shows patch on the item right away. A failure restores the item as it
// was before the edit.
func (q *Queue) Update(id string, patch domain.MenuItemPatch, img *Image) (Mutation, error) {
	if err := patch.Validate(); err != nil {
		return Mutation{}, err
	}
	if patch.Empty() && img == nil {
		return Mutation{}, ErrEmptyPatch
	}
	if err := q.checkIdle(id); err != nil {
		return Mutation{}, err
	}
	data, contentType, err := q.prepare(img)
	if err != nil {
		return Mutation{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.admit(id); err != nil {
		return Mutation{}, err
	}

	ref := q.preview(data, contentType)
	before, ok := q.store.BeginUpdate(id, patch, ref)
	if !ok {
		q.previews.Release(ref)
		return Mutation{}, ErrUnknownItem
	}
	m := q.begin(KindUpdate, id, before.Name)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer q.previews.Release(ref)

		final, err := q.runUpdate(id, patch, data, contentType)
		q.settle(m, err, func() {
			if err != nil {
				q.store.RevertItem(before)
				return
			}
			q.store.ConfirmUpdate(id, final)
		})
	}()
	return *m, nil
}

func (q *Queue) runUpdate(id string, patch domain.MenuItemPatch, data []byte, contentType string) (domain.MenuItemPatch, error) {
	if data != nil {
		url, err := q.upload(data, contentType)
		if err != nil {
			return patch, err
		}
		patch.ImageURL = &url
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.MetadataTimeout)
	defer cancel()
	return patch, q.remote.Update(ctx, id, patch)
}

// Delete removes the item right away. A failure restores the whole list as it
// was when the delete was submitted, except that placeholders settled in the
// meantime appear as their outcome.
func (q *Queue) Delete(id string) (Mutation, error) {
	if err := q.checkIdle(id); err != nil {
		return Mutation{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.admit(id); err != nil {
		return Mutation{}, err
	}

	item, ok := q.store.Get(id)
	if !ok {
		return Mutation{}, ErrUnknownItem
	}
	snapshot := q.store.Snapshot()
	q.store.Remove(id)
	m := q.begin(KindDelete, id, item.Name)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), q.cfg.MetadataTimeout)
		err := q.remote.Delete(ctx, id)
		cancel()
		q.settle(m, err, func() {
			if err != nil {
				q.store.Restore(q.reconcile(snapshot))
			}
		})
	}()
	return *m, nil
}

// Close stops the queue from touching the store. Requests already sent still
// run to completion but their results are discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Wait blocks until every background request has returned.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) Get(mutationID string) (Mutation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, ok := q.records[mutationID]
	if !ok {
		return Mutation{}, false
	}
	return *m, true
}

// InFlight reports whether item id has an unsettled mutation.
func (q *Queue) InFlight(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.inflight[id]
	return ok
}

func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// DrainNotices returns and clears the failure messages collected so far.
func (q *Queue) DrainNotices() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	notices := q.notices
	q.notices = nil
	return notices
}

func (q *Queue) prepare(img *Image) ([]byte, string, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, "", nil
	}
	if q.images == nil {
		return nil, "", errors.New("image processing is not configured")
	}
	return q.images.Process(img.Data)
}

func (q *Queue) preview(data []byte, contentType string) string {
	if data == nil {
		return ""
	}
	return q.previews.Put(data, contentType)
}

func (q *Queue) upload(data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.UploadTimeout)
	defer cancel()
	url, err := q.uploader.Upload(ctx, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

func (q *Queue) checkIdle(id string) error {
	if catalog.IsTempID(id) {
		return ErrItemPending
	}
	return nil
}

// admit must be called with q.mu held.
func (q *Queue) admit(id string) error {
	if q.closed {
		return ErrClosed
	}
	if _, busy := q.inflight[id]; busy {
		return ErrItemPending
	}
	return nil
}

// begin must be called with q.mu held.
func (q *Queue) begin(kind Kind, itemID, name string) *Mutation {
	m := &Mutation{
		ID:        uuid.NewString(),
		Kind:      kind,
		ItemID:    itemID,
		ItemName:  name,
		State:     Pending,
		StartedAt: time.Now(),
	}
	q.inflight[itemID] = m.ID
	q.records[m.ID] = m
	q.order = append(q.order, m.ID)
	q.trim()
	return m
}

// settle records the outcome of m and, unless the queue was closed, runs apply
// to reconcile the store.
func (q *Queue) settle(m *Mutation, err error, apply func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inflight, m.ItemID)
	m.SettledAt = time.Now()
	if err != nil {
		m.State = RolledBack
		m.Error = err.Error()
		q.logger.Warn("menu change rolled back",
			zap.String("kind", string(m.Kind)),
			zap.String("item_id", m.ItemID),
			zap.Error(err))
	} else {
		m.State = Confirmed
	}

	if q.closed {
		return
	}
	apply()
	if err != nil {
		q.notices = append(q.notices, Notice{MutationID: m.ID, Message: failureMessage(m), At: m.SettledAt})
	}
}

// reconcile replaces placeholders in snapshot whose create has since settled:
// confirmed ones by the stored item, rolled back ones are dropped. Must be
// called with q.mu held.
func (q *Queue) reconcile(snapshot []domain.OptimisticMenuItem) []domain.OptimisticMenuItem {
	out := make([]domain.OptimisticMenuItem, 0, len(snapshot))
	for _, item := range snapshot {
		if catalog.IsTempID(item.ID) {
			if _, live := q.store.Get(item.ID); !live {
				current, ok := q.store.Get(q.promoted[item.ID])
				if !ok {
					continue
				}
				item = current
			}
		}
		out = append(out, item)
	}
	return out
}

// trim must be called with q.mu held. Only settled records are dropped.
func (q *Queue) trim() {
	for len(q.order) > maxRecords {
		oldest := q.records[q.order[0]]
		if oldest != nil && oldest.State == Pending {
			return
		}
		delete(q.records, q.order[0])
		q.order = q.order[1:]
	}
}

func failureMessage(m *Mutation) string {
	switch m.Kind {
	case KindCreate:
		return fmt.Sprintf("Could not add %q. Please try again.", m.ItemName)
	case KindUpdate:
		return fmt.Sprintf("Could not save changes to %q. Please try again.", m.ItemName)
	default:
		return fmt.Sprintf("Could not delete %q. Please try again.", m.ItemName)
	}
}

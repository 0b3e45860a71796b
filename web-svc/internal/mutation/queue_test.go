package mutation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digital-menu/web-svc/internal/catalog"
	"digital-menu/web-svc/internal/domain"
	"digital-menu/web-svc/internal/mutation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedRemote blocks every call until release is called.
type gatedRemote struct {
	gate chan struct{}
	// deleteGate, when set, additionally holds deletes until it is closed.
	deleteGate chan struct{}

	mu        sync.Mutex
	createErr error
	updateErr error
	deleteErr error
	uploadErr error
	created   []domain.MenuItem
	updated   []domain.MenuItemPatch
	uploaded  [][]byte
}

func newGatedRemote() *gatedRemote {
	return &gatedRemote{gate: make(chan struct{})}
}

func (r *gatedRemote) release() { close(r.gate) }

func (r *gatedRemote) wait(ctx context.Context) error {
	select {
	case <-r.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *gatedRemote) Create(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if err := r.wait(ctx); err != nil {
		return domain.MenuItem{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, item)
	if r.createErr != nil {
		return domain.MenuItem{}, r.createErr
	}
	item.ID = "srv-1"
	return item, nil
}

func (r *gatedRemote) Update(ctx context.Context, id string, patch domain.MenuItemPatch) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, patch)
	return r.updateErr
}

func (r *gatedRemote) Delete(ctx context.Context, id string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	if r.deleteGate != nil {
		select {
		case <-r.deleteGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.deleteErr
}

func (r *gatedRemote) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploaded = append(r.uploaded, data)
	if r.uploadErr != nil {
		return "", r.uploadErr
	}
	return "http://cdn/uploads/owner-1/x.jpg", nil
}

type fakeProcessor struct{}

func (fakeProcessor) Process(data []byte) ([]byte, string, error) {
	return append([]byte("small:"), data...), "image/jpeg", nil
}

func strPtr(s string) *string { return &s }

func newQueue(remote *gatedRemote) (*mutation.Queue, *catalog.Store) {
	return newQueueWithConfig(remote, mutation.Config{})
}

func newQueueWithConfig(remote *gatedRemote, cfg mutation.Config) (*mutation.Queue, *catalog.Store) {
	store := catalog.NewStore()
	store.Load([]domain.MenuItem{
		{ID: "a", Name: "Nasi Goreng", Price: 15000, Category: domain.CategoryFood, Available: true},
		{ID: "b", Name: "Es Teh", Price: 8000, Category: domain.CategoryDrink, ImageURL: strPtr("http://cdn/b.jpg"), Position: 1},
		{ID: "c", Name: "Pisang Goreng", Price: 10000, Category: domain.CategorySnack, Position: 2},
	})
	return mutation.NewQueue(store, remote, remote, fakeProcessor{}, cfg, nil), store
}

var sate = domain.MenuItem{Name: "Sate", Price: 20000, Category: domain.CategoryFood, Available: true}

func TestCreateConfirmed(t *testing.T) {
	remote := newGatedRemote()
	q, store := newQueue(remote)

	m, err := q.Create(sate, nil)
	require.NoError(t, err)
	assert.Equal(t, mutation.Pending, m.State)

	items := store.Items()
	require.Len(t, items, 4)
	assert.Equal(t, m.ItemID, items[0].ID)
	assert.True(t, items[0].Pending)
	assert.True(t, q.InFlight(m.ItemID))

	remote.release()
	q.Wait()

	got, ok := q.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, mutation.Confirmed, got.State)
	assert.Equal(t, "srv-1", got.ItemID)

	assert.Equal(t, []string{"srv-1", "a", "b", "c"}, store.IDs())
	assert.False(t, store.HasPending())
	assert.Empty(t, q.DrainNotices())
	assert.Zero(t, q.PendingCount())
}

func TestCreateFailureRestoresList(t *testing.T) {
	remote := newGatedRemote()
	remote.createErr = errors.New("500 from catalog")
	q, store := newQueue(remote)
	before := store.Items()

	m, err := q.Create(sate, nil)
	require.NoError(t, err)
	remote.release()
	q.Wait()

	if diff := cmp.Diff(before, store.Items()); diff != "" {
		t.Errorf("store not restored (-want +got):\n%s", diff)
	}
	got, _ := q.Get(m.ID)
	assert.Equal(t, mutation.RolledBack, got.State)
	assert.Contains(t, got.Error, "500 from catalog")

	notices := q.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, m.ID, notices[0].MutationID)
	assert.Contains(t, notices[0].Message, "Sate")
	assert.Empty(t, q.DrainNotices())
}

func TestCreateWithImage(t *testing.T) {
	remote := newGatedRemote()
	q, store := newQueue(remote)

	m, err := q.Create(sate, &mutation.Image{Data: []byte("raw")})
	require.NoError(t, err)

	pending, _ := store.Get(m.ItemID)
	require.NotEmpty(t, pending.PreviewRef)
	preview, ok := q.Previews().Get(pending.PreviewRef)
	require.True(t, ok)
	assert.Equal(t, []byte("small:raw"), preview.Data)

	remote.release()
	q.Wait()

	final, ok := store.Get("srv-1")
	require.True(t, ok)
	require.NotNil(t, final.ImageURL)
	assert.Equal(t, "http://cdn/uploads/owner-1/x.jpg", *final.ImageURL)
	assert.Empty(t, final.PreviewRef)
	assert.Equal(t, [][]byte{[]byte("small:raw")}, remote.uploaded)
	assert.Zero(t, q.Previews().Len())
}

func TestCreateUploadFailureSkipsCreate(t *testing.T) {
	remote := newGatedRemote()
	remote.uploadErr = errors.New("too large")
	q, store := newQueue(remote)

	_, err := q.Create(sate, &mutation.Image{Data: []byte("raw")})
	require.NoError(t, err)
	remote.release()
	q.Wait()

	assert.Empty(t, remote.created)
	assert.Equal(t, []string{"a", "b", "c"}, store.IDs())
	assert.Len(t, q.DrainNotices(), 1)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	q, store := newQueue(newGatedRemote())

	_, err := q.Create(domain.MenuItem{Name: "", Price: 1, Category: domain.CategoryFood}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidItem)
	assert.Len(t, store.Items(), 3)
}

func TestUpdateFailureRevertsItem(t *testing.T) {
	remote := newGatedRemote()
	remote.updateErr = errors.New("timeout")
	q, store := newQueue(remote)
	original, _ := store.Get("b")

	name := "Es Jeruk"
	_, err := q.Update("b", domain.MenuItemPatch{Name: &name}, &mutation.Image{Data: []byte("new")})
	require.NoError(t, err)

	shown, _ := store.Get("b")
	assert.Equal(t, "Es Jeruk", shown.Name)
	assert.True(t, shown.Pending)

	remote.release()
	q.Wait()

	reverted, _ := store.Get("b")
	if diff := cmp.Diff(original, reverted); diff != "" {
		t.Errorf("item not reverted (-want +got):\n%s", diff)
	}
	assert.Zero(t, q.Previews().Len())
}

func TestUpdateConfirmedCarriesUploadedImage(t *testing.T) {
	remote := newGatedRemote()
	q, store := newQueue(remote)

	_, err := q.Update("a", domain.MenuItemPatch{}, &mutation.Image{Data: []byte("new")})
	require.NoError(t, err)
	remote.release()
	q.Wait()

	got, _ := store.Get("a")
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "http://cdn/uploads/owner-1/x.jpg", *got.ImageURL)
	assert.False(t, got.Pending)
	require.Len(t, remote.updated, 1)
	assert.Equal(t, got.ImageURL, remote.updated[0].ImageURL)
}

func TestOneMutationPerItem(t *testing.T) {
	remote := newGatedRemote()
	q, _ := newQueue(remote)

	available := false
	_, err := q.Update("a", domain.MenuItemPatch{Available: &available}, nil)
	require.NoError(t, err)

	_, err = q.Update("a", domain.MenuItemPatch{Available: &available}, nil)
	assert.ErrorIs(t, err, mutation.ErrItemPending)
	_, err = q.Delete("a")
	assert.ErrorIs(t, err, mutation.ErrItemPending)

	created, err := q.Create(sate, nil)
	require.NoError(t, err)
	_, err = q.Delete(created.ItemID)
	assert.ErrorIs(t, err, mutation.ErrItemPending)

	_, err = q.Delete("b")
	assert.NoError(t, err)

	remote.release()
	q.Wait()
}

func TestUpdateValidation(t *testing.T) {
	q, _ := newQueue(newGatedRemote())

	_, err := q.Update("a", domain.MenuItemPatch{}, nil)
	assert.ErrorIs(t, err, mutation.ErrEmptyPatch)

	price := int64(-5)
	_, err = q.Update("a", domain.MenuItemPatch{Price: &price}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	name := "Kopi"
	_, err = q.Update("missing", domain.MenuItemPatch{Name: &name}, nil)
	assert.ErrorIs(t, err, mutation.ErrUnknownItem)
	assert.Zero(t, q.PendingCount())
}

func TestDeleteFailureRestoresSnapshot(t *testing.T) {
	remote := newGatedRemote()
	remote.deleteErr = errors.New("conflict")
	q, store := newQueue(remote)
	before := store.Items()

	_, err := q.Delete("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, store.IDs())

	remote.release()
	q.Wait()

	assert.Empty(t, cmp.Diff(before, store.Items()))
	assert.Len(t, q.DrainNotices(), 1)
}

func TestDeleteConfirmed(t *testing.T) {
	remote := newGatedRemote()
	q, store := newQueue(remote)

	m, err := q.Delete("c")
	require.NoError(t, err)
	remote.release()
	q.Wait()

	got, _ := q.Get(m.ID)
	assert.Equal(t, mutation.Confirmed, got.State)
	assert.Equal(t, []string{"a", "b"}, store.IDs())
}

func TestCompletionAfterCloseLeavesStoreAlone(t *testing.T) {
	remote := newGatedRemote()
	remote.createErr = errors.New("late failure")
	q, store := newQueue(remote)

	m, err := q.Create(sate, nil)
	require.NoError(t, err)
	snapshot := store.Items()

	q.Close()
	remote.release()
	q.Wait()

	assert.Empty(t, cmp.Diff(snapshot, store.Items()))
	assert.Empty(t, q.DrainNotices())

	got, _ := q.Get(m.ID)
	assert.Equal(t, mutation.RolledBack, got.State)

	_, err = q.Create(sate, nil)
	assert.ErrorIs(t, err, mutation.ErrClosed)
}

func TestCreateTimeoutRollsBack(t *testing.T) {
	remote := newGatedRemote()
	q, store := newQueueWithConfig(remote, mutation.Config{MetadataTimeout: 50 * time.Millisecond})
	before := store.IDs()

	m, err := q.Create(sate, nil)
	require.NoError(t, err)
	q.Wait()

	got, _ := q.Get(m.ID)
	assert.Equal(t, mutation.RolledBack, got.State)
	assert.Contains(t, got.Error, context.DeadlineExceeded.Error())
	assert.Equal(t, before, store.IDs())
	assert.False(t, store.HasPending())
	assert.Len(t, q.DrainNotices(), 1)
	assert.Zero(t, q.PendingCount())
}

func TestUploadTimeoutRollsBackUpdate(t *testing.T) {
	remote := newGatedRemote()
	q, store := newQueueWithConfig(remote, mutation.Config{UploadTimeout: 50 * time.Millisecond})
	before := store.Items()

	m, err := q.Update("b", domain.MenuItemPatch{Name: strPtr("Es Jeruk")}, &mutation.Image{Data: []byte("raw")})
	require.NoError(t, err)
	q.Wait()

	got, _ := q.Get(m.ID)
	assert.Equal(t, mutation.RolledBack, got.State)
	if diff := cmp.Diff(before, store.Items()); diff != "" {
		t.Errorf("item not reverted (-want +got):\n%s", diff)
	}
	assert.Empty(t, remote.updated)
	assert.Len(t, q.DrainNotices(), 1)
}

func TestDeleteFailureKeepsCreateSettledMeanwhile(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		wantIDs   []string
	}{
		{name: "confirmed create stays", wantIDs: []string{"srv-1", "a", "b", "c"}},
		{name: "rolled back create stays gone", createErr: errors.New("500 from catalog"), wantIDs: []string{"a", "b", "c"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			remote := newGatedRemote()
			remote.createErr = testCase.createErr
			remote.deleteErr = errors.New("conflict")
			remote.deleteGate = make(chan struct{})
			q, store := newQueue(remote)

			created, err := q.Create(sate, nil)
			require.NoError(t, err)
			_, err = q.Delete("b")
			require.NoError(t, err)

			remote.release()
			require.Eventually(t, func() bool {
				m, _ := q.Get(created.ID)
				return m.State != mutation.Pending
			}, time.Second, 5*time.Millisecond)
			close(remote.deleteGate)
			q.Wait()

			assert.Equal(t, testCase.wantIDs, store.IDs())
			assert.False(t, store.HasPending())
		})
	}
}

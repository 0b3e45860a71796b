package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"digital-menu/catalog-svc/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskObjectStorePut(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewDiskObjectStore(dir, "http://cdn.local/")

	url, err := store.Put(context.Background(), "owner-1", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://cdn.local/uploads/owner-1/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	saved, err := os.ReadFile(filepath.Join(dir, "owner-1", filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(saved))
}

func TestDiskObjectStoreRejectsUnknownType(t *testing.T) {
	store := storage.NewDiskObjectStore(t.TempDir(), "http://cdn.local")

	_, err := store.Put(context.Background(), "owner-1", []byte("x"), "application/pdf")

	assert.Error(t, err)
	assert.False(t, storage.AllowedImageType("application/pdf"))
	assert.True(t, storage.AllowedImageType("image/webp"))
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func AllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// DiskObjectStore keeps uploads under Dir and serves them from BaseURL + "/uploads/".
// Objects are never deleted.
type DiskObjectStore struct {
	Dir     string
	BaseURL string
}

func NewDiskObjectStore(dir, baseURL string) *DiskObjectStore {
	return &DiskObjectStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskObjectStore) Put(ctx context.Context, ownerID string, data []byte, contentType string) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.Dir, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	return s.BaseURL + "/uploads/" + ownerID + "/" + filename, nil
}

package mutation

import (
	"sync"

	"github.com/google/uuid"
)

const previewPrefix = "blob:"

type Preview struct {
	Data        []byte
	ContentType string
}

// Previews keeps processed images in memory so pending items can show them
// before the upload finishes.
type Previews struct {
	mu    sync.RWMutex
	blobs map[string]Preview
}

func NewPreviews() *Previews {
	return &Previews{blobs: make(map[string]Preview)}
}

func (p *Previews) Put(data []byte, contentType string) string {
	ref := previewPrefix + uuid.NewString()
	p.mu.Lock()
	p.blobs[ref] = Preview{Data: data, ContentType: contentType}
	p.mu.Unlock()
	return ref
}

func (p *Previews) Get(ref string) (Preview, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	preview, ok := p.blobs[ref]
	return preview, ok
}

func (p *Previews) Release(ref string) {
	if ref == "" {
		return
	}
	p.mu.Lock()
	delete(p.blobs, ref)
	p.mu.Unlock()
}

func (p *Previews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blobs)
}

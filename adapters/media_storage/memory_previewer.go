package media_storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
)

// MemoryPreviewer keeps pending payloads in process and hands out "blob:"
// references to them.
type MemoryPreviewer struct {
	mu    sync.Mutex
	blobs map[string]asset.Payload
}

func NewMemoryPreviewer() *MemoryPreviewer {
	return &MemoryPreviewer{blobs: make(map[string]asset.Payload)}
}

func (p *MemoryPreviewer) Create(_ context.Context, _ asset.Slot, payload asset.Payload) (string, error) {
	ref := "blob:" + uuid.NewString()
	p.mu.Lock()
	p.blobs[ref] = payload
	p.mu.Unlock()
	return ref, nil
}

func (p *MemoryPreviewer) Release(_ context.Context, ref string) error {
	p.mu.Lock()
	delete(p.blobs, ref)
	p.mu.Unlock()
	return nil
}

// Open returns the payload behind a live reference.
func (p *MemoryPreviewer) Open(ref string) (asset.Payload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, ok := p.blobs[ref]
	return payload, ok
}

func (p *MemoryPreviewer) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.blobs)
}

var _ asset.Previewer = (*MemoryPreviewer)(nil)

package persistence

import (
	"context"
	"sync"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

type memoryMediaRepo struct {
	mu      sync.RWMutex
	byOwner map[string]map[asset.Slot]asset.Payload
}

func NewMemoryMediaRepo() asset.Repository {
	return &memoryMediaRepo{byOwner: make(map[string]map[asset.Slot]asset.Payload)}
}

func (r *memoryMediaRepo) Get(_ context.Context, owner string, slot asset.Slot) (asset.Payload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byOwner[owner][slot]
	if !ok {
		return asset.Payload{}, apperror.NewNotFound(string(slot), owner)
	}
	return p, nil
}

func (r *memoryMediaRepo) Put(_ context.Context, owner string, slot asset.Slot, payload asset.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.byOwner[owner]
	if !ok {
		slots = make(map[asset.Slot]asset.Payload)
		r.byOwner[owner] = slots
	}
	data := append([]byte(nil), payload.Data...)
	payload.Data = data
	slots[slot] = payload
	return nil
}

func (r *memoryMediaRepo) Delete(_ context.Context, owner string, slot asset.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwner[owner], slot)
	return nil
}

func (r *memoryMediaRepo) DeleteAll(_ context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwner, owner)
	return nil
}

package profile

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
)

// Editor is the single writer of one profile: the aggregate being edited and
// its asset slots. Use cases read and replace its state; callers mutate it
// through the methods below.
type Editor struct {
	mu      sync.Mutex
	profile *profile.Profile
	assets  *asset.Manager

	// generation changes whenever the editor is left or reset; results of
	// fetches started under an older generation are discarded.
	generation uint64
	// busy guards against re-entrant submissions and deletions.
	busy atomic.Bool
}

func newEditor(assets *asset.Manager) *Editor {
	return &Editor{
		profile: profile.TemplateEmpty(),
		assets:  assets,
	}
}

// Snapshot returns a deep copy of the aggregate.
func (e *Editor) Snapshot() *profile.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

func (e *Editor) Exists() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Exists()
}

func (e *Editor) ApplyFieldEdit(field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.ApplyFieldEdit(field, value)
}

func (e *Editor) AddItem(section profile.Section, template map[string]string) (profile.Selector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.AddItem(section, template)
}

func (e *Editor) EditItem(section profile.Section, sel profile.Selector, field, value string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.EditItem(section, sel, field, value)
}

func (e *Editor) RemoveItem(section profile.Section, sel profile.Selector) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.RemoveItem(section, sel)
}

func (e *Editor) Records(section profile.Section) ([]profile.SubRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Records(section)
}

// SetAsset stages a local replacement for slot and returns its preview reference.
func (e *Editor) SetAsset(ctx context.Context, slot asset.Slot, payload asset.Payload) (string, error) {
	return e.assets.SetPending(ctx, slot, payload)
}

func (e *Editor) DiscardAsset(ctx context.Context, slot asset.Slot) error {
	return e.assets.Discard(ctx, slot)
}

func (e *Editor) Asset(slot asset.Slot) asset.View {
	return e.assets.View(slot)
}

func (e *Editor) Assets() []asset.View {
	return e.assets.Views()
}

// Leave marks the editor as abandoned: any fetch still in flight is
// discarded when it completes, and all previews are released.
func (e *Editor) Leave(ctx context.Context) {
	e.mu.Lock()
	e.generation++
	e.mu.Unlock()
	e.assets.Reset(ctx)
}

func (e *Editor) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// resetLocked returns the editor to an empty template. The caller holds e.mu.
func (e *Editor) resetLocked(ctx context.Context) {
	e.generation++
	e.profile = profile.TemplateEmpty()
	e.assets.Reset(ctx)
}

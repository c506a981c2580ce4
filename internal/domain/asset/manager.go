package asset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

type Options struct {
	DefaultProfilePicture string
	DefaultCoverPhoto     string
	// MaxBytes caps a pending payload; zero disables the check.
	MaxBytes int64
}

// View is what a caller should display for a slot.
type View struct {
	Slot  Slot
	State State
	// Ref is the preview reference while pending, the remote reference when
	// remote, and the default reference (possibly empty) otherwise.
	Ref       string
	IsDefault bool
	// Payload is the pending payload, or the fetched remote content if any.
	Payload *Payload
}

type slotState struct {
	state  State
	remote string
	// remoteData is set when the remote content was fetched or submitted.
	remoteData *Payload

	pending *Payload
	preview string
	// seq changes on every pending write so a commit can tell whether the
	// payload it submitted is still the current one.
	seq uint64
}

// Snapshot is the set of pending payloads taken at submission time.
type Snapshot struct {
	Payloads map[Slot]Payload
	seqs     map[Slot]uint64
}

func (s Snapshot) Empty() bool {
	return len(s.Payloads) == 0
}

// Manager tracks the four asset slots of one profile. Pending payloads shadow
// remote references until CommitPending or Discard.
type Manager struct {
	mu        sync.Mutex
	slots     map[Slot]*slotState
	previewer Previewer
	opts      Options
	log       logger.Logger
}

func NewManager(previewer Previewer, opts Options, log logger.Logger) *Manager {
	m := &Manager{
		previewer: previewer,
		opts:      opts,
		log:       log,
	}
	m.slots = freshSlots()
	return m
}

func freshSlots() map[Slot]*slotState {
	slots := make(map[Slot]*slotState, len(Slots))
	for _, s := range Slots {
		slots[s] = &slotState{state: StateUnset}
	}
	return slots
}

func (m *Manager) defaultRef(slot Slot) string {
	switch slot {
	case SlotProfilePicture:
		return m.opts.DefaultProfilePicture
	case SlotCoverPhoto:
		return m.opts.DefaultCoverPhoto
	default:
		return ""
	}
}

func (m *Manager) slot(slot Slot) (*slotState, error) {
	st, ok := m.slots[slot]
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown asset slot %q", slot), nil)
	}
	return st, nil
}

func (m *Manager) check(slot Slot, payload Payload) error {
	if _, ok := m.slots[slot]; !ok {
		return apperror.NewValidation(fmt.Sprintf("unknown asset slot %q", slot), nil)
	}
	if payload.Size() == 0 {
		return apperror.NewValidation(fmt.Sprintf("%s payload is empty", slot), nil)
	}
	if m.opts.MaxBytes > 0 && int64(payload.Size()) > m.opts.MaxBytes {
		return apperror.NewValidation(fmt.Sprintf("%s payload is %d bytes, limit is %d", slot, payload.Size(), m.opts.MaxBytes), nil)
	}
	if slot.IsImage() && !payload.isImage() {
		return apperror.NewValidation(fmt.Sprintf("%s must be an image, got %s", slot, payload.ContentType), nil)
	}
	return nil
}

// SetPending stages a local replacement for slot. The last write wins and the
// preview of any earlier pending payload is released.
func (m *Manager) SetPending(ctx context.Context, slot Slot, payload Payload) (string, error) {
	payload = payload.withContentType()
	if err := m.check(slot, payload); err != nil {
		return "", err
	}

	ref, err := m.previewer.Create(ctx, slot, payload)
	if err != nil {
		return "", apperror.NewInternal(fmt.Sprintf("create preview for %s", slot), err)
	}

	m.mu.Lock()
	st := m.slots[slot]
	superseded := st.preview
	st.pending = &payload
	st.preview = ref
	st.state = StatePendingLocal
	st.seq++
	m.mu.Unlock()

	m.release(ctx, superseded)
	m.log.Debug("Asset staged", zap.String("slot", string(slot)), zap.Int("bytes", payload.Size()))
	return ref, nil
}

// Discard abandons the pending payload of slot. The slot returns to Remote if
// a remote reference is known, to Unset otherwise.
func (m *Manager) Discard(ctx context.Context, slot Slot) error {
	m.mu.Lock()
	st, err := m.slot(slot)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	preview := st.preview
	st.pending = nil
	st.preview = ""
	st.seq++
	st.state = settled(st)
	m.mu.Unlock()

	m.release(ctx, preview)
	return nil
}

func settled(st *slotState) State {
	if st.remote != "" {
		return StateRemote
	}
	return StateUnset
}

// MarkRemote records a known remote reference, e.g. a URL carried by the
// profile itself. A pending payload keeps shadowing it.
func (m *Manager) MarkRemote(slot Slot, ref string) error {
	if ref == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.slot(slot)
	if err != nil {
		return err
	}
	st.remote = ref
	if st.state != StatePendingLocal {
		st.state = StateRemote
	}
	return nil
}

// ResolveRemote fetches the remote content of slot. Failures of any kind,
// not-found included, leave the slot on its default representation and are
// never returned: an optional asset must not fail a profile load.
func (m *Manager) ResolveRemote(ctx context.Context, slot Slot, fetch Fetcher) View {
	if _, err := m.slot(slot); err != nil || !slot.Fetchable() {
		return m.View(slot)
	}

	payload, err := fetch(ctx, slot)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			m.log.Debug("Asset not found, using default", zap.String("slot", string(slot)))
		} else {
			m.log.Warn("Asset fetch failed, using default", zap.String("slot", string(slot)), zap.Error(err))
		}
		return m.View(slot)
	}

	payload = payload.withContentType()
	m.mu.Lock()
	st := m.slots[slot]
	st.remote = remoteRef(slot)
	st.remoteData = &payload
	if st.state != StatePendingLocal {
		st.state = StateRemote
	}
	m.mu.Unlock()

	return m.View(slot)
}

func remoteRef(slot Slot) string {
	return "remote:" + string(slot)
}

// Pending snapshots every slot in PendingLocal. Only these slots become
// binary parts of a submission.
func (m *Manager) Pending() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Payloads: make(map[Slot]Payload),
		seqs:     make(map[Slot]uint64),
	}
	for _, slot := range Slots {
		st := m.slots[slot]
		if st.state == StatePendingLocal && st.pending != nil {
			snap.Payloads[slot] = *st.pending
			snap.seqs[slot] = st.seq
		}
	}
	return snap
}

// CommitPending moves the submitted slots to Remote and releases their
// previews. A slot staged again after the snapshot was taken keeps its newer
// pending payload; the submitted content still becomes its remote content.
func (m *Manager) CommitPending(ctx context.Context, snap Snapshot) {
	var released []string

	m.mu.Lock()
	for slot, payload := range snap.Payloads {
		st, ok := m.slots[slot]
		if !ok {
			continue
		}
		submitted := payload
		st.remote = remoteRef(slot)
		st.remoteData = &submitted
		if st.seq != snap.seqs[slot] {
			continue
		}
		released = append(released, st.preview)
		st.pending = nil
		st.preview = ""
		st.state = StateRemote
	}
	m.mu.Unlock()

	for _, ref := range released {
		m.release(ctx, ref)
	}
}

func (m *Manager) View(slot Slot) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.slots[slot]
	if !ok {
		return View{Slot: slot}
	}
	v := View{Slot: slot, State: st.state}
	switch st.state {
	case StatePendingLocal:
		p := *st.pending
		v.Ref = st.preview
		v.Payload = &p
	case StateRemote:
		v.Ref = st.remote
		if st.remoteData != nil {
			p := *st.remoteData
			v.Payload = &p
		}
	default:
		v.Ref = m.defaultRef(slot)
		v.IsDefault = true
	}
	return v
}

func (m *Manager) Views() []View {
	out := make([]View, 0, len(Slots))
	for _, slot := range Slots {
		out = append(out, m.View(slot))
	}
	return out
}

// Reset releases every preview and returns all slots to Unset.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	var previews []string
	for _, st := range m.slots {
		if st.preview != "" {
			previews = append(previews, st.preview)
		}
	}
	m.slots = freshSlots()
	m.mu.Unlock()

	for _, ref := range previews {
		m.release(ctx, ref)
	}
}

func (m *Manager) release(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := m.previewer.Release(ctx, ref); err != nil {
		m.log.Warn("Failed to release preview", zap.String("ref", ref), zap.Error(err))
	}
}

package asset

import "context"

// Repository stores the submitted assets of each owner. It backs the
// development backend.
type Repository interface {
	Get(ctx context.Context, owner string, slot Slot) (Payload, error)
	Put(ctx context.Context, owner string, slot Slot, payload Payload) error
	Delete(ctx context.Context, owner string, slot Slot) error
	DeleteAll(ctx context.Context, owner string) error
}

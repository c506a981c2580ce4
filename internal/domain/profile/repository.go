package profile

import "context"

// Repository stores one profile per owner. It backs the development backend.
type Repository interface {
	GetByOwner(ctx context.Context, owner string) (*Profile, error)
	// Save stores p for owner, assigning identities to the root and to every
	// record that has none, and returns the stored copy.
	Save(ctx context.Context, owner string, p *Profile) (*Profile, error)
	Delete(ctx context.Context, owner string, id ID) error
}

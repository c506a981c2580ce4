package service

import (
	"context"

	"github.com/khoahotran/internmatch-client/internal/domain/session"
)

// TokenStore persists the token pair between runs. Load returns empty tokens
// and no error when nothing is stored.
type TokenStore interface {
	Save(ctx context.Context, tokens session.Tokens) error
	Load(ctx context.Context) (session.Tokens, error)
	Clear(ctx context.Context) error
}

// ExistenceCache remembers whether a subject has a profile. A miss is
// reported with ok == false.
type ExistenceCache interface {
	Get(ctx context.Context, subject string) (exists bool, ok bool, err error)
	Set(ctx context.Context, subject string, exists bool) error
	Invalidate(ctx context.Context, subject string) error
}

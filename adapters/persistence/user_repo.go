package persistence

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/khoahotran/internmatch-client/internal/domain/user"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

type memoryUserRepo struct {
	mu       sync.RWMutex
	accounts map[string]user.Account
}

func NewMemoryUserRepo() user.Repository {
	return &memoryUserRepo{accounts: make(map[string]user.Account)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[normalizeEmail(email)]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return &a, nil
}

func (r *memoryUserRepo) Create(_ context.Context, a *user.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(a.Email)
	if _, exists := r.accounts[key]; exists {
		return apperror.NewConflictOrServer(http.StatusConflict, "Email is already registered", key)
	}
	stored := *a
	stored.Email = key
	r.accounts[key] = stored
	return nil
}

func (r *memoryUserRepo) UpdatePasswordHash(_ context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(email)
	a, ok := r.accounts[key]
	if !ok {
		return apperror.NewNotFound("user", email)
	}
	a.PasswordHash = hash
	r.accounts[key] = a
	return nil
}

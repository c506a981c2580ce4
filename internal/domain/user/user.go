package user

import (
	"context"
)

// Account is a registered user of the development backend.
type Account struct {
	Email        string `json:"email"`
	FirstName    string `json:"firstname"`
	LastName     string `json:"lastname"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

func (a *Account) DisplayName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.Email
	}
}

// Roles maps a registration role to the claims put in access tokens.
func (a *Account) Roles() []string {
	switch a.Role {
	case "MANAGER":
		return []string{"MANAGER"}
	case "ADMIN":
		return []string{"ROLE_ADMIN"}
	case "USER":
		return []string{"ROLE_USER"}
	default:
		return nil
	}
}

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

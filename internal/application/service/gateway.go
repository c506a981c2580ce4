package service

import (
	"context"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
)

// Submission is one atomic profile write: the structured aggregate plus the
// binary parts of every pending asset. Slots absent from Assets are left
// unchanged by the backend.
type Submission struct {
	Profile *profile.Profile
	Assets  map[asset.Slot]asset.Payload
}

// ProfileGateway is the backend's profile API. Implementations classify
// failures with apperror; a missing profile or asset is apperror.ErrNotFound.
type ProfileGateway interface {
	GetMyProfile(ctx context.Context, token string) (*profile.Profile, error)
	// CreateProfile and UpdateProfile return the backend's view of the
	// written profile, or nil when the response carried none.
	CreateProfile(ctx context.Context, token string, sub Submission) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, token string, id profile.ID, sub Submission) (*profile.Profile, error)
	DeleteProfile(ctx context.Context, token string, id profile.ID) error
	GetAsset(ctx context.Context, token string, slot asset.Slot) (asset.Payload, error)
}

type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstname" validate:"required"`
	LastName  string `json:"lastname" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=USER ADMIN MANAGER"`
}

type PasswordChange struct {
	CurrentPassword      string `json:"currentPassword" validate:"required"`
	NewPassword          string `json:"newPassword" validate:"required,min=6"`
	ConfirmationPassword string `json:"confirmationPassword" validate:"required"`
}

// AuthGateway is the backend's token-issuance API.
type AuthGateway interface {
	Authenticate(ctx context.Context, email, password string) (session.Tokens, error)
	// ExchangeGoogle trades a federated identity token for the system's own
	// tokens and returns the display name the backend resolved.
	ExchangeGoogle(ctx context.Context, idToken string) (session.Tokens, string, error)
	Register(ctx context.Context, reg Registration) (session.Tokens, error)
	ChangePassword(ctx context.Context, token string, change PasswordChange) error
}

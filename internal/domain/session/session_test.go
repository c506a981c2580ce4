package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/auth"
)

func strPtr(s string) *string { return &s }

func TestRoute(t *testing.T) {
	cases := []struct {
		role *string
		want Destination
	}{
		{strPtr(RoleManager), DestinationCompanyHome},
		{strPtr(RoleStudent), DestinationStudentHome},
		{strPtr("ROLE_ADMIN"), DestinationChangePassword},
		{strPtr(""), DestinationChangePassword},
		{nil, DestinationChangePassword},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Route(tc.role))
	}
}

func TestProfileHome(t *testing.T) {
	assert.Equal(t, DestinationProfileView, ProfileHome(true))
	assert.Equal(t, DestinationProfileCreate, ProfileHome(false))
}

func TestNewSessionDecodesRole(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)
	access, refresh, err := svc.GenerateTokenPair("ana@example.com", []string{RoleManager})
	require.NoError(t, err)

	s := New(Tokens{AccessToken: access, RefreshToken: refresh}, "Ana")
	require.NotNil(t, s.Role())
	assert.Equal(t, RoleManager, *s.Role())
	assert.Equal(t, "ana@example.com", s.Subject())
	assert.Equal(t, "Ana", s.DisplayName())
	assert.Equal(t, DestinationCompanyHome, s.Home())
	assert.NoError(t, Require(s))
}

func TestMalformedCredentialRoutesToPasswordChange(t *testing.T) {
	s := New(Tokens{AccessToken: "definitely.not.a-jwt"}, "")
	assert.Nil(t, s.Role())
	assert.Empty(t, s.Subject())
	assert.Equal(t, DestinationChangePassword, s.Home())
}

func TestRequire(t *testing.T) {
	assert.True(t, errors.Is(Require(nil), apperror.ErrAuthRequired))
	assert.True(t, errors.Is(Require(New(Tokens{}, "")), apperror.ErrAuthRequired))
}

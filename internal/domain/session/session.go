package session

import (
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/auth"
)

// Tokens is the only client state that outlives a process.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (t Tokens) Empty() bool {
	return t.AccessToken == ""
}

// Session is the authenticated identity context passed to every aggregate
// operation. It is immutable; logging out discards it.
type Session struct {
	tokens      Tokens
	role        *string
	subject     string
	displayName string
}

// New decodes the role and subject from the access token. A malformed token
// yields a nil role rather than an error.
func New(tokens Tokens, displayName string) *Session {
	return &Session{
		tokens:      tokens,
		role:        auth.DecodeRole(tokens.AccessToken),
		subject:     auth.Subject(tokens.AccessToken),
		displayName: displayName,
	}
}

func (s *Session) Tokens() Tokens {
	return s.tokens
}

func (s *Session) AccessToken() string {
	return s.tokens.AccessToken
}

func (s *Session) Role() *string {
	if s.role == nil {
		return nil
	}
	r := *s.role
	return &r
}

// Subject is the token's "sub" claim, "" when the token carries none.
func (s *Session) Subject() string {
	return s.subject
}

func (s *Session) DisplayName() string {
	return s.displayName
}

// Home is where the session lands after authentication.
func (s *Session) Home() Destination {
	return Route(s.role)
}

// Require fails with AuthRequired unless s carries a credential.
func Require(s *Session) error {
	if s == nil || s.tokens.Empty() {
		return apperror.NewAuthRequired("no credential in session")
	}
	return nil
}

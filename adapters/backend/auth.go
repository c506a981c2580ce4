package backend

import (
	"context"
	"net/http"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Name         string `json:"name,omitempty"`
}

func (t tokenResponse) tokens() session.Tokens {
	return session.Tokens{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (session.Tokens, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/authenticate", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return session.Tokens{}, err
	}
	var out tokenResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return session.Tokens{}, err
	}
	return out.tokens(), nil
}

func (c *Client) ExchangeGoogle(ctx context.Context, idToken string) (session.Tokens, string, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/google", "", map[string]string{"token": idToken})
	if err != nil {
		return session.Tokens{}, "", err
	}
	var out tokenResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return session.Tokens{}, "", err
	}
	return out.tokens(), out.Name, nil
}

func (c *Client) Register(ctx context.Context, reg service.Registration) (session.Tokens, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/register", "", reg)
	if err != nil {
		return session.Tokens{}, err
	}
	var out tokenResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return session.Tokens{}, err
	}
	return out.tokens(), nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, change service.PasswordChange) error {
	req, err := jsonRequest(http.MethodPatch, "/users", token, change)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, req, nil)
}

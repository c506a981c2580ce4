package backend

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

var assetPaths = map[asset.Slot]string{
	asset.SlotProfilePicture: "/profiles/profile-picture",
	asset.SlotCoverPhoto:     "/profiles/cover-photo",
}

func (c *Client) GetMyProfile(ctx context.Context, token string) (*profile.Profile, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/profiles/my-profile", token: token})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewNetwork("read profile", err)
	}
	return profile.Hydrate(raw)
}

func (c *Client) CreateProfile(ctx context.Context, token string, sub service.Submission) (*profile.Profile, error) {
	return c.writeProfile(ctx, http.MethodPost, "/profiles", token, sub)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, id profile.ID, sub service.Submission) (*profile.Profile, error) {
	return c.writeProfile(ctx, http.MethodPut, "/profiles/"+url.PathEscape(id.String()), token, sub)
}

func (c *Client) writeProfile(ctx context.Context, method, path, token string, sub service.Submission) (*profile.Profile, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{method: method, path: path, token: token, body: body, contentType: contentType})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return nil, nil
	}
	// The write already succeeded; an unreadable echo only costs identity
	// adoption, which the caller recovers from.
	written, err := profile.Hydrate(raw)
	if err != nil {
		c.logger.Warn("Ignoring unreadable profile in write response", zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	return written, nil
}

func (c *Client) DeleteProfile(ctx context.Context, token string, id profile.ID) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: "/profiles/" + url.PathEscape(id.String()), token: token}, nil)
}

func (c *Client) GetAsset(ctx context.Context, token string, slot asset.Slot) (asset.Payload, error) {
	path, ok := assetPaths[slot]
	if !ok {
		return asset.Payload{}, apperror.NewNotFound(string(slot), "no endpoint")
	}

	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, token: token})
	if err != nil {
		return asset.Payload{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return asset.Payload{}, apperror.NewNetwork(fmt.Sprintf("read %s", slot), err)
	}
	if len(data) == 0 {
		return asset.Payload{}, apperror.NewNotFound(string(slot), "empty body")
	}

	contentType := mimetype.Detect(data).String()
	if ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && ct != "application/octet-stream" {
		contentType = ct
	}
	return asset.Payload{
		Filename:    filenameFrom(resp.Header.Get("Content-Disposition"), string(slot)),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func filenameFrom(disposition, fallback string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return fallback
}

var (
	_ service.ProfileGateway = (*Client)(nil)
	_ service.AuthGateway    = (*Client)(nil)
)

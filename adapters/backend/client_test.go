package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var cfg config.Config
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 5 * time.Second
	return NewClient(cfg, logger.NewNop())
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		base    error
		message string
	}{
		{http.StatusUnauthorized, "", apperror.ErrAuthRequired, "Access denied. Please check your login."},
		{http.StatusForbidden, `{"error":"Invalid or expired token"}`, apperror.ErrAuthRequired, "Invalid or expired token"},
		{http.StatusNotFound, "", apperror.ErrNotFound, "Resource not found"},
		{http.StatusInternalServerError, "<html>boom</html>", apperror.ErrConflictOrServer, "Server error. Please check the submitted data."},
		{http.StatusInternalServerError, `{"message":"constraint violated"}`, apperror.ErrConflictOrServer, "constraint violated"},
		{http.StatusConflict, "", apperror.ErrConflictOrServer, "The request was rejected by the server"},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		})

		_, err := c.GetMyProfile(context.Background(), "token")
		require.Error(t, err)
		assert.True(t, errors.Is(err, tc.base), "status %d", tc.status)
		assert.Equal(t, tc.message, apperror.UserMessage(err), "status %d", tc.status)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tc.status, appErr.Status)
	}
}

func TestNetworkFailureAndCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	var cfg config.Config
	cfg.API.BaseURL = srv.URL
	c := NewClient(cfg, logger.NewNop())
	srv.Close()

	_, err := c.GetMyProfile(context.Background(), "token")
	assert.True(t, errors.Is(err, apperror.ErrNetwork))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetMyProfile(ctx, "token")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, apperror.ErrNetwork))
}

func TestSubmissionIsMultipart(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth string
		gotProfile                  map[string]any
		gotParts                    = map[string]string{}
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(part)
			if part.FormName() == ProfilePart {
				require.NoError(t, json.Unmarshal(data, &gotProfile))
				continue
			}
			gotParts[part.FormName()] = part.Header.Get("Content-Type") + ";" + part.FileName()
		}
		_, _ = io.WriteString(w, `{"id":7,"headline":"x","educations":[{"id":70,"school":"S"}]}`)
	})

	p := profile.TemplateEmpty()
	p.ID = "7"
	p.Headline = "x"
	sub := service.Submission{
		Profile: p,
		Assets: map[asset.Slot]asset.Payload{
			asset.SlotProfilePicture: asset.NewPayload("me.png", []byte("\x89PNG\r\n\x1a\nrest")),
			asset.SlotCV:             {Data: []byte("%PDF-1.4\n")},
		},
	}

	written, err := c.UpdateProfile(context.Background(), "tok", p.ID, sub)
	require.NoError(t, err)
	require.NotNil(t, written)
	assert.Equal(t, profile.ID("70"), written.Educations[0].ID)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/profiles/7", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "x", gotProfile["headline"])
	assert.Equal(t, float64(7), gotProfile["id"])
	assert.Equal(t, map[string]string{
		"profilePicture": "image/png;me.png",
		"cv":             "application/pdf;cv.pdf",
	}, gotParts)
}

func TestWriteWithoutEchoReturnsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	written, err := c.CreateProfile(context.Background(), "tok", service.Submission{Profile: profile.TemplateEmpty()})
	require.NoError(t, err)
	assert.Nil(t, written)
}

func TestGetAsset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/profiles/profile-picture":
			w.Header().Set("Content-Disposition", `inline; filename="me.png"`)
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nrest"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	p, err := c.GetAsset(context.Background(), "tok", asset.SlotProfilePicture)
	require.NoError(t, err)
	assert.Equal(t, "me.png", p.Filename)
	assert.Equal(t, "image/png", p.ContentType)

	_, err = c.GetAsset(context.Background(), "tok", asset.SlotCoverPhoto)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = c.GetAsset(context.Background(), "tok", asset.SlotCV)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

package http

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/internmatch-client/adapters/persistence"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/auth"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

type failingProfiles struct {
	profile.Repository
}

func (failingProfiles) Save(context.Context, string, *profile.Profile) (*profile.Profile, error) {
	return nil, apperror.NewInternal("profile store unavailable", nil)
}

func multipartSubmission(t *testing.T, doc string, files map[asset.Slot][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField(ProfileField, doc))
	for slot, data := range files {
		part, err := w.CreateFormFile(string(slot), string(slot)+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestFailedSaveRestoresAssets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := logger.NewNop()
	jwtSvc := auth.NewJWTService("s", time.Hour)
	media := persistence.NewMemoryMediaRepo()
	router := NewRouter("test", RouterDeps{
		Users:    persistence.NewMemoryUserRepo(),
		Profiles: failingProfiles{persistence.NewMemoryProfileRepo(log)},
		Media:    media,
		JWT:      jwtSvc,
		MaxBytes: 1 << 20,
		Logger:   log,
	})

	const subject = "ana@example.com"
	require.NoError(t, media.Put(ctx, subject, asset.SlotProfilePicture, asset.NewPayload("old.png", pngCover)))
	access, _, err := jwtSvc.GenerateTokenPair(subject, []string{"ROLE_USER"})
	require.NoError(t, err)

	body, contentType := multipartSubmission(t, `{"headline": "Intern"}`, map[asset.Slot][]byte{
		asset.SlotProfilePicture: pngPicture,
		asset.SlotCoverPhoto:     pngCover,
	})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/profiles", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	picture, err := media.Get(ctx, subject, asset.SlotProfilePicture)
	require.NoError(t, err)
	assert.Equal(t, pngCover, picture.Data)
	assert.Equal(t, "old.png", picture.Filename)

	_, err = media.Get(ctx, subject, asset.SlotCoverPhoto)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/user"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

// ProfileField is the multipart field carrying the profile JSON document.
const ProfileField = "profile"

type ProfileHandler struct {
	profiles profile.Repository
	media    asset.Repository
	users    user.Repository
	maxBytes int64
	logger   logger.Logger
}

func NewProfileHandler(profiles profile.Repository, media asset.Repository, users user.Repository, maxBytes int64, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		media:    media,
		users:    users,
		maxBytes: maxBytes,
		logger:   log,
	}
}

func (h *ProfileHandler) subject(c *gin.Context) (string, bool) {
	subject, ok := GetSubjectFromGinContext(c)
	if !ok {
		c.Error(apperror.NewAuthRequired("subject not found in context"))
	}
	return subject, ok
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	p, err := h.profiles.GetByOwner(c.Request.Context(), subject)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.profiles.GetByOwner(ctx, subject); err == nil {
		c.Error(apperror.NewConflictOrServer(http.StatusConflict, "Profile already exists", subject))
		return
	} else if !errors.Is(err, apperror.ErrNotFound) {
		c.Error(err)
		return
	}

	doc, files, err := h.readSubmission(c)
	if err != nil {
		c.Error(err)
		return
	}
	doc.ID = ""
	h.save(c, subject, doc, files)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	current, err := h.profiles.GetByOwner(c.Request.Context(), subject)
	if err != nil {
		c.Error(err)
		return
	}
	if current.ID.String() != c.Param("id") {
		c.Error(apperror.NewNotFound("profile", c.Param("id")))
		return
	}

	doc, files, err := h.readSubmission(c)
	if err != nil {
		c.Error(err)
		return
	}
	doc.ID = current.ID
	if doc.CoverPhotoURL == "" {
		doc.CoverPhotoURL = current.CoverPhotoURL
	}
	h.save(c, subject, doc, files)
}

func (h *ProfileHandler) save(c *gin.Context, subject string, doc *profile.Profile, files map[asset.Slot]asset.Payload) {
	ctx := c.Request.Context()

	if a, err := h.users.FindByEmail(ctx, subject); err == nil {
		doc.FirstName, doc.LastName, doc.Email = a.FirstName, a.LastName, a.Email
	} else {
		doc.Email = subject
	}

	// previous holds what each replaced slot stored before this write; nil
	// means the slot was empty.
	previous := make(map[asset.Slot]*asset.Payload, len(files))
	for slot, payload := range files {
		old, err := h.media.Get(ctx, subject, slot)
		switch {
		case err == nil:
			previous[slot] = &old
		case errors.Is(err, apperror.ErrNotFound):
			previous[slot] = nil
		default:
			h.restore(ctx, subject, previous)
			c.Error(err)
			return
		}
		if err := h.media.Put(ctx, subject, slot, payload); err != nil {
			h.restore(ctx, subject, previous)
			c.Error(err)
			return
		}
	}

	stored, err := h.profiles.Save(ctx, subject, doc)
	if err != nil {
		h.restore(ctx, subject, previous)
		c.Error(err)
		return
	}
	h.logger.Info("Profile saved", zap.String("subject", subject), zap.String("profile_id", stored.ID.String()), zap.Int("files", len(files)))
	c.JSON(http.StatusOK, stored)
}

// restore puts back the assets a failed write replaced.
func (h *ProfileHandler) restore(ctx context.Context, subject string, previous map[asset.Slot]*asset.Payload) {
	for slot, old := range previous {
		var err error
		if old == nil {
			err = h.media.Delete(ctx, subject, slot)
		} else {
			err = h.media.Put(ctx, subject, slot, *old)
		}
		if err != nil {
			h.logger.Error("Failed to restore asset", err, zap.String("subject", subject), zap.String("slot", string(slot)))
		}
	}
}

// readSubmission accepts either a JSON body or a multipart form with a
// "profile" JSON field and one optional file part per asset slot.
func (h *ProfileHandler) readSubmission(c *gin.Context) (*profile.Profile, map[asset.Slot]asset.Payload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBytes))
		if err != nil {
			return nil, nil, apperror.NewValidation("unreadable body", err)
		}
		doc, err := profile.Hydrate(raw)
		return doc, nil, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperror.NewValidation("invalid multipart body", err)
	}
	values := form.Value[ProfileField]
	if len(values) == 0 {
		return nil, nil, apperror.NewValidation("multipart body has no profile field", nil)
	}
	doc, err := profile.Hydrate([]byte(values[0]))
	if err != nil {
		return nil, nil, err
	}

	files := make(map[asset.Slot]asset.Payload)
	for _, slot := range asset.Slots {
		headers := form.File[string(slot)]
		if len(headers) == 0 {
			continue
		}
		payload, err := h.readFile(slot, headers[0])
		if err != nil {
			return nil, nil, err
		}
		files[slot] = payload
	}
	return doc, files, nil
}

func (h *ProfileHandler) readFile(slot asset.Slot, fh *multipart.FileHeader) (asset.Payload, error) {
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return asset.Payload{}, apperror.NewValidation(fmt.Sprintf("%s exceeds %d bytes", slot, h.maxBytes), nil)
	}
	f, err := fh.Open()
	if err != nil {
		return asset.Payload{}, apperror.NewValidation(fmt.Sprintf("unreadable %s part", slot), err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return asset.Payload{}, apperror.NewValidation(fmt.Sprintf("unreadable %s part", slot), err)
	}
	payload := asset.NewPayload(fh.Filename, data)
	if slot.IsImage() && !strings.HasPrefix(payload.ContentType, "image/") {
		return asset.Payload{}, apperror.NewValidation(fmt.Sprintf("%s must be an image", slot), nil)
	}
	return payload, nil
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.profiles.Delete(ctx, subject, profile.ID(c.Param("id"))); err != nil {
		c.Error(err)
		return
	}
	if err := h.media.DeleteAll(ctx, subject); err != nil {
		h.logger.Warn("Failed to delete profile media", zap.String("subject", subject), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) serveAsset(slot asset.Slot) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := h.subject(c)
		if !ok {
			return
		}
		payload, err := h.media.Get(c.Request.Context(), subject, slot)
		if err != nil {
			c.Error(err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", payload.Filename))
		c.Data(http.StatusOK, payload.ContentType, payload.Data)
	}
}

func (h *ProfileHandler) GetProfilePicture(c *gin.Context) {
	h.serveAsset(asset.SlotProfilePicture)(c)
}

func (h *ProfileHandler) GetCoverPhoto(c *gin.Context) {
	h.serveAsset(asset.SlotCoverPhoto)(c)
}

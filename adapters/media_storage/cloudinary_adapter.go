package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

// uploadAPI is the part of the Cloudinary upload API the previewer needs.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type hosted struct {
	publicID     string
	resourceType string
}

// CloudinaryPreviewer hosts pending images on Cloudinary so previews can be
// shared as URLs. Releasing a preview destroys the hosted copy. Documents
// (cv, letter) never leave the process; they and any image whose upload
// fails are previewed locally.
type CloudinaryPreviewer struct {
	api    uploadAPI
	folder string
	local  *MemoryPreviewer
	logger logger.Logger

	mu     sync.Mutex
	hosted map[string]hosted
}

func NewCloudinaryPreviewer(cfg config.Config, log logger.Logger) (*CloudinaryPreviewer, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("connect Cloudinary successfully.", zap.String("folder", cfg.Cloudinary.Folder))
	return newCloudinaryPreviewer(&cld.Upload, cfg.Cloudinary.Folder, log), nil
}

func newCloudinaryPreviewer(api uploadAPI, folder string, log logger.Logger) *CloudinaryPreviewer {
	return &CloudinaryPreviewer{
		api:    api,
		folder: folder,
		local:  NewMemoryPreviewer(),
		logger: log,
		hosted: make(map[string]hosted),
	}
}

func (p *CloudinaryPreviewer) Create(ctx context.Context, slot asset.Slot, payload asset.Payload) (string, error) {
	if !slot.IsImage() {
		return p.local.Create(ctx, slot, payload)
	}

	ref, err := p.upload(ctx, slot, payload)
	if err != nil {
		p.logger.Warn("Cloudinary preview unavailable, keeping it local", zap.String("slot", string(slot)), zap.Error(err))
		return p.local.Create(ctx, slot, payload)
	}
	return ref, nil
}

func (p *CloudinaryPreviewer) upload(ctx context.Context, slot asset.Slot, payload asset.Payload) (string, error) {
	publicID := fmt.Sprintf("%s-%s", slot, uuid.NewString())
	result, err := p.api.Upload(ctx, bytes.NewReader(payload.Data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       p.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload cloudinary: %s", result.Error.Message)
	}

	p.mu.Lock()
	p.hosted[result.SecureURL] = hosted{publicID: result.PublicID, resourceType: result.ResourceType}
	p.mu.Unlock()
	return result.SecureURL, nil
}

func (p *CloudinaryPreviewer) Release(ctx context.Context, ref string) error {
	p.mu.Lock()
	h, ok := p.hosted[ref]
	delete(p.hosted, ref)
	p.mu.Unlock()
	if !ok {
		return p.local.Release(ctx, ref)
	}

	_, err := p.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     h.publicID,
		ResourceType: h.resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}

var _ asset.Previewer = (*CloudinaryPreviewer)(nil)

package profile

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

var tracer = otel.Tracer("profile_usecase")

type ProfileUseCase struct {
	gateway   service.ProfileGateway
	cache     service.ExistenceCache
	events    service.EventPublisher
	tokens    service.TokenStore
	previewer asset.Previewer
	assetOpts asset.Options
	logger    logger.Logger
}

func NewProfileUseCase(
	gateway service.ProfileGateway,
	cache service.ExistenceCache,
	events service.EventPublisher,
	tokens service.TokenStore,
	previewer asset.Previewer,
	assetOpts asset.Options,
	log logger.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		gateway:   gateway,
		cache:     cache,
		events:    events,
		tokens:    tokens,
		previewer: previewer,
		assetOpts: assetOpts,
		logger:    log,
	}
}

// NewEditor returns an empty editor. Call ExecuteLoadProfile to fill it.
func (uc *ProfileUseCase) NewEditor() *Editor {
	return newEditor(uc.newAssetManager())
}

func (uc *ProfileUseCase) newAssetManager() *asset.Manager {
	return asset.NewManager(uc.previewer, uc.assetOpts, uc.logger)
}

// fetched is the result of reading a profile and its optional images
// concurrently. Image failures are kept, not returned.
type fetched struct {
	profile    *profile.Profile
	profileErr error
	images     map[asset.Slot]imageResult
}

type imageResult struct {
	payload asset.Payload
	err     error
}

func (f fetched) fetcher(ctx context.Context, slot asset.Slot) (asset.Payload, error) {
	r, ok := f.images[slot]
	if !ok {
		return asset.Payload{}, apperror.NewNotFound(string(slot), "me")
	}
	return r.payload, r.err
}

func (uc *ProfileUseCase) fetchAll(ctx context.Context, token string) fetched {
	var (
		out     = fetched{images: make(map[asset.Slot]imageResult, 2)}
		picture imageResult
		cover   imageResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.profile, out.profileErr = uc.gateway.GetMyProfile(gctx, token)
		return nil
	})
	g.Go(func() error {
		picture.payload, picture.err = uc.gateway.GetAsset(gctx, token, asset.SlotProfilePicture)
		return nil
	})
	g.Go(func() error {
		cover.payload, cover.err = uc.gateway.GetAsset(gctx, token, asset.SlotCoverPhoto)
		return nil
	})
	_ = g.Wait()

	out.images[asset.SlotProfilePicture] = picture
	out.images[asset.SlotCoverPhoto] = cover
	return out
}

// primary maps the primary read onto (profile, exists). Not-found is the
// creation flow, not a failure.
func (f fetched) primary() (*profile.Profile, bool, error) {
	if f.profileErr != nil {
		if errors.Is(f.profileErr, apperror.ErrNotFound) {
			return profile.TemplateEmpty(), false, nil
		}
		return nil, false, f.profileErr
	}
	return f.profile, true, nil
}

type LoadProfileInput struct {
	Session *session.Session
	Editor  *Editor
}

type LoadProfileOutput struct {
	Exists bool
	// Discarded is set when the editor was left or reset while the fetch was
	// in flight; the editor was not touched.
	Discarded bool
	Profile   *profile.Profile
	Assets    []asset.View
}

// ExecuteLoadProfile fetches the caller's profile and its images into the
// editor. A missing profile initializes the editor with an empty template.
func (uc *ProfileUseCase) ExecuteLoadProfile(ctx context.Context, input LoadProfileInput) (*LoadProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteLoadProfile")
	defer span.End()

	if err := session.Require(input.Session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	ed := input.Editor
	gen := ed.currentGeneration()

	res := uc.fetchAll(ctx, input.Session.AccessToken())
	p, exists, err := res.primary()
	if err != nil {
		uc.logger.Error("Failed to load profile", err)
		span.RecordError(err)
		return nil, err
	}

	ed.mu.Lock()
	if ed.generation != gen {
		ed.mu.Unlock()
		uc.logger.Debug("Discarding stale profile load")
		return &LoadProfileOutput{Discarded: true}, nil
	}
	ed.profile = p
	ed.assets.Reset(ctx)
	if err := ed.assets.MarkRemote(asset.SlotCoverPhoto, p.CoverPhotoURL); err != nil {
		uc.logger.Warn("Ignoring cover photo reference", zap.Error(err))
	}
	ed.assets.ResolveRemote(ctx, asset.SlotProfilePicture, res.fetcher)
	ed.assets.ResolveRemote(ctx, asset.SlotCoverPhoto, res.fetcher)
	snapshot := ed.profile.Clone()
	ed.mu.Unlock()

	uc.rememberExistence(ctx, input.Session, exists)
	span.SetAttributes(attribute.Bool("profile.exists", exists))

	return &LoadProfileOutput{
		Exists:  exists,
		Profile: snapshot,
		Assets:  ed.Assets(),
	}, nil
}

type ViewProfileInput struct {
	Session *session.Session
}

type ViewProfileOutput struct {
	Profile *profile.Profile
	Picture asset.View
	Cover   asset.View
}

// ExecuteViewProfile is the read-only view: the profile must exist, images
// fall back to their defaults.
func (uc *ProfileUseCase) ExecuteViewProfile(ctx context.Context, input ViewProfileInput) (*ViewProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteViewProfile")
	defer span.End()

	if err := session.Require(input.Session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := uc.fetchAll(ctx, input.Session.AccessToken())
	if res.profileErr != nil {
		if errors.Is(res.profileErr, apperror.ErrNotFound) {
			uc.rememberExistence(ctx, input.Session, false)
		}
		span.RecordError(res.profileErr)
		return nil, res.profileErr
	}
	uc.rememberExistence(ctx, input.Session, true)

	assets := uc.newAssetManager()
	defer assets.Reset(ctx)
	if err := assets.MarkRemote(asset.SlotCoverPhoto, res.profile.CoverPhotoURL); err != nil {
		uc.logger.Warn("Ignoring cover photo reference", zap.Error(err))
	}

	return &ViewProfileOutput{
		Profile: res.profile,
		Picture: assets.ResolveRemote(ctx, asset.SlotProfilePicture, res.fetcher),
		Cover:   assets.ResolveRemote(ctx, asset.SlotCoverPhoto, res.fetcher),
	}, nil
}

type ResolveHomeInput struct {
	Session *session.Session
}

type ResolveHomeOutput struct {
	Exists      bool
	Destination session.Destination
}

// ExecuteResolveHome decides between the profile view and the creation page,
// answering from the existence cache when it can.
func (uc *ProfileUseCase) ExecuteResolveHome(ctx context.Context, input ResolveHomeInput) (*ResolveHomeOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteResolveHome")
	defer span.End()

	if err := session.Require(input.Session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if subject := input.Session.Subject(); subject != "" {
		exists, ok, err := uc.cache.Get(ctx, subject)
		if err != nil {
			uc.logger.Warn("Existence cache read failed", zap.String("subject", subject), zap.Error(err))
		} else if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &ResolveHomeOutput{Exists: exists, Destination: session.ProfileHome(exists)}, nil
		}
	}

	exists := true
	if _, err := uc.gateway.GetMyProfile(ctx, input.Session.AccessToken()); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			span.RecordError(err)
			return nil, err
		}
		exists = false
	}
	uc.rememberExistence(ctx, input.Session, exists)

	return &ResolveHomeOutput{Exists: exists, Destination: session.ProfileHome(exists)}, nil
}

type SubmitProfileInput struct {
	Session *session.Session
	Editor  *Editor
}

type SubmitProfileOutput struct {
	Created   bool
	Profile   *profile.Profile
	Submitted []asset.Slot
}

// ExecuteSubmitProfile sends the aggregate and every pending asset in one
// request: an update when the profile exists, a create otherwise. On failure
// the editor is left exactly as it was.
func (uc *ProfileUseCase) ExecuteSubmitProfile(ctx context.Context, input SubmitProfileInput) (*SubmitProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteSubmitProfile")
	defer span.End()

	if err := session.Require(input.Session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	ed := input.Editor
	if !ed.busy.CompareAndSwap(false, true) {
		err := apperror.NewBusy("a submission for this profile is outstanding")
		span.RecordError(err)
		return nil, err
	}
	defer ed.busy.Store(false)

	ed.mu.Lock()
	outgoing := ed.profile.Clone()
	pending := ed.assets.Pending()
	gen := ed.generation
	ed.mu.Unlock()

	if err := outgoing.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	sub := service.Submission{Profile: outgoing, Assets: pending.Payloads}
	token := input.Session.AccessToken()
	create := !outgoing.Exists()
	span.SetAttributes(attribute.Bool("profile.create", create), attribute.Int("assets.count", len(pending.Payloads)))

	var (
		remote *profile.Profile
		err    error
	)
	if create {
		remote, err = uc.gateway.CreateProfile(ctx, token, sub)
	} else {
		remote, err = uc.gateway.UpdateProfile(ctx, token, outgoing.ID, sub)
	}
	if err != nil {
		uc.logger.Error("Profile submission failed", err, zap.Bool("create", create), zap.String("profile_id", outgoing.ID.String()))
		span.RecordError(err)
		return nil, err
	}

	if create && (remote == nil || remote.ID.IsZero()) {
		// the write succeeded; read the identity back
		remote, err = uc.gateway.GetMyProfile(ctx, token)
		if err != nil {
			uc.logger.Warn("Created profile could not be read back", zap.Error(err))
			remote = nil
		}
	}

	ed.mu.Lock()
	if ed.generation == gen {
		if remote != nil {
			if err := ed.profile.AdoptIdentities(remote); err != nil {
				ed.mu.Unlock()
				uc.logger.Error("Backend returned a conflicting profile identity", err)
				span.RecordError(err)
				return nil, err
			}
		}
		ed.assets.CommitPending(ctx, pending)
	}
	result := ed.profile.Clone()
	ed.mu.Unlock()

	slots := submittedSlots(pending)
	uc.rememberExistence(ctx, input.Session, true)

	eventType := service.ProfileUpdated
	if create {
		eventType = service.ProfileCreated
	}
	uc.publish(ctx, service.ProfileEvent{
		Type:      eventType,
		ProfileID: result.ID,
		Subject:   input.Session.Subject(),
		Assets:    slots,
		At:        time.Now().UTC(),
	})

	uc.logger.Info("Profile submitted", zap.Bool("create", create), zap.String("profile_id", result.ID.String()), zap.Int("assets", len(slots)))
	return &SubmitProfileOutput{
		Created:   create,
		Profile:   result,
		Submitted: slots,
	}, nil
}

func submittedSlots(snap asset.Snapshot) []asset.Slot {
	slots := make([]asset.Slot, 0, len(snap.Payloads))
	for _, slot := range asset.Slots {
		if _, ok := snap.Payloads[slot]; ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

type DeleteProfileInput struct {
	Session *session.Session
	Editor  *Editor
}

type DeleteProfileOutput struct {
	Destination session.Destination
}

// ExecuteDeleteProfile removes the profile, resets the editor to an empty
// template and ends the session.
func (uc *ProfileUseCase) ExecuteDeleteProfile(ctx context.Context, input DeleteProfileInput) (*DeleteProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "ExecuteDeleteProfile")
	defer span.End()

	if err := session.Require(input.Session); err != nil {
		span.RecordError(err)
		return nil, err
	}

	ed := input.Editor
	if !ed.busy.CompareAndSwap(false, true) {
		err := apperror.NewBusy("a write for this profile is outstanding")
		span.RecordError(err)
		return nil, err
	}
	defer ed.busy.Store(false)

	ed.mu.Lock()
	id := ed.profile.ID
	ed.mu.Unlock()
	if id.IsZero() {
		err := apperror.NewValidation("there is no saved profile to delete", nil)
		span.RecordError(err)
		return nil, err
	}

	if err := uc.gateway.DeleteProfile(ctx, input.Session.AccessToken(), id); err != nil {
		uc.logger.Error("Profile deletion failed", err, zap.String("profile_id", id.String()))
		span.RecordError(err)
		return nil, err
	}

	ed.mu.Lock()
	ed.resetLocked(ctx)
	ed.mu.Unlock()

	subject := input.Session.Subject()
	if subject != "" {
		if err := uc.cache.Invalidate(ctx, subject); err != nil {
			uc.logger.Warn("Existence cache invalidation failed", zap.String("subject", subject), zap.Error(err))
		}
	}

	uc.publish(ctx, service.ProfileEvent{
		Type:      service.ProfileDeleted,
		ProfileID: id,
		Subject:   subject,
		At:        time.Now().UTC(),
	})

	if err := uc.tokens.Clear(ctx); err != nil {
		uc.logger.Warn("Failed to clear stored tokens", zap.Error(err))
	}

	uc.logger.Info("Profile deleted", zap.String("profile_id", id.String()))
	return &DeleteProfileOutput{Destination: session.DestinationLogin}, nil
}

func (uc *ProfileUseCase) rememberExistence(ctx context.Context, s *session.Session, exists bool) {
	subject := s.Subject()
	if subject == "" {
		return
	}
	if err := uc.cache.Set(ctx, subject, exists); err != nil {
		uc.logger.Warn("Existence cache write failed", zap.String("subject", subject), zap.Error(err))
	}
}

func (uc *ProfileUseCase) publish(ctx context.Context, ev service.ProfileEvent) {
	if err := uc.events.PublishProfileEvent(ctx, ev); err != nil {
		uc.logger.Error("Failed to publish profile event", err, zap.String("event_type", string(ev.Type)), zap.String("profile_id", ev.ProfileID.String()))
	}
}

package profile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/auth"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// deep compares aggregates including their local keys.
var deep = cmp.Exporter(func(reflect.Type) bool { return true })

type call struct {
	op     string
	id     profile.ID
	assets []asset.Slot
	body   *profile.Profile
}

// fakeGateway is an in-memory backend for one user.
type fakeGateway struct {
	mu      sync.Mutex
	stored  *profile.Profile
	images  map[asset.Slot]asset.Payload
	nextID  int
	calls   []call
	failErr error
	// block, when set, holds writes and GetMyProfile until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{images: map[asset.Slot]asset.Payload{}, nextID: 100}
}

func (g *fakeGateway) wait() {
	if g.block == nil {
		return
	}
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	<-g.block
}

func (g *fakeGateway) record(c call) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
}

func (g *fakeGateway) GetMyProfile(context.Context, string) (*profile.Profile, error) {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stored == nil {
		return nil, apperror.NewNotFound("profile", "me")
	}
	return g.stored.Clone(), nil
}

func (g *fakeGateway) persist(p *profile.Profile, assets map[asset.Slot]asset.Payload) *profile.Profile {
	stored := p.Clone()
	if stored.ID.IsZero() {
		stored.ID = profile.ID(fmt.Sprint(g.nextID))
		g.nextID++
	}
	for i := range stored.Educations {
		if stored.Educations[i].ID.IsZero() {
			stored.Educations[i].ID = profile.ID(fmt.Sprint(g.nextID))
			g.nextID++
		}
	}
	for i := range stored.Skills {
		if stored.Skills[i].ID.IsZero() {
			stored.Skills[i].ID = profile.ID(fmt.Sprint(g.nextID))
			g.nextID++
		}
	}
	stored.Email = "ana@example.com"
	for slot, payload := range assets {
		g.images[slot] = payload
	}
	g.stored = stored
	return stored.Clone()
}

func (g *fakeGateway) CreateProfile(_ context.Context, _ string, sub service.Submission) (*profile.Profile, error) {
	g.wait()
	g.record(call{op: "create", assets: slotsOf(sub.Assets), body: sub.Profile.Clone()})
	if g.failErr != nil {
		return nil, g.failErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.persist(sub.Profile, sub.Assets), nil
}

func (g *fakeGateway) UpdateProfile(_ context.Context, _ string, id profile.ID, sub service.Submission) (*profile.Profile, error) {
	g.wait()
	g.record(call{op: "update", id: id, assets: slotsOf(sub.Assets), body: sub.Profile.Clone()})
	if g.failErr != nil {
		return nil, g.failErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.persist(sub.Profile, sub.Assets), nil
}

func (g *fakeGateway) DeleteProfile(_ context.Context, _ string, id profile.ID) error {
	g.record(call{op: "delete", id: id})
	if g.failErr != nil {
		return g.failErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stored = nil
	g.images = map[asset.Slot]asset.Payload{}
	return nil
}

func (g *fakeGateway) GetAsset(_ context.Context, _ string, slot asset.Slot) (asset.Payload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.images[slot]
	if !ok {
		return asset.Payload{}, apperror.NewNotFound(string(slot), "me")
	}
	return p, nil
}

func slotsOf(m map[asset.Slot]asset.Payload) []asset.Slot {
	var out []asset.Slot
	for _, s := range asset.Slots {
		if _, ok := m[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]bool
	hits int
}

func (c *fakeCache) Get(_ context.Context, subject string) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[subject]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, subject string, exists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[subject] = exists
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, subject)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []service.ProfileEvent
}

func (e *fakeEvents) PublishProfileEvent(_ context.Context, ev service.ProfileEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

type fakeTokens struct {
	tokens  session.Tokens
	cleared bool
}

func (f *fakeTokens) Save(_ context.Context, t session.Tokens) error {
	f.tokens = t
	return nil
}

func (f *fakeTokens) Load(context.Context) (session.Tokens, error) {
	return f.tokens, nil
}

func (f *fakeTokens) Clear(context.Context) error {
	f.tokens = session.Tokens{}
	f.cleared = true
	return nil
}

type fakePreviewer struct {
	mu   sync.Mutex
	n    int
	live map[string]bool
}

func (p *fakePreviewer) Create(_ context.Context, slot asset.Slot, _ asset.Payload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	ref := fmt.Sprintf("blob:%s:%d", slot, p.n)
	p.live[ref] = true
	return ref, nil
}

func (p *fakePreviewer) Release(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, ref)
	return nil
}

type ProfileUseCaseSuite struct {
	suite.Suite
	ctx       context.Context
	gateway   *fakeGateway
	cache     *fakeCache
	events    *fakeEvents
	tokens    *fakeTokens
	previewer *fakePreviewer
	uc        *ProfileUseCase
	session   *session.Session
}

func (s *ProfileUseCaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = newFakeGateway()
	s.cache = &fakeCache{data: map[string]bool{}}
	s.events = &fakeEvents{}
	s.tokens = &fakeTokens{}
	s.previewer = &fakePreviewer{live: map[string]bool{}}
	s.uc = NewProfileUseCase(s.gateway, s.cache, s.events, s.tokens, s.previewer, asset.Options{
		DefaultProfilePicture: "https://cdn.example.com/avatar.png",
		DefaultCoverPhoto:     "https://cdn.example.com/cover.png",
	}, logger.NewNop())

	access, refresh, err := auth.NewJWTService("test", time.Hour).GenerateTokenPair("ana@example.com", []string{session.RoleStudent})
	s.Require().NoError(err)
	s.session = session.New(session.Tokens{AccessToken: access, RefreshToken: refresh}, "Ana")
	s.tokens.tokens = s.session.Tokens()
}

func TestProfileUseCaseSuite(t *testing.T) {
	suite.Run(t, new(ProfileUseCaseSuite))
}

func (s *ProfileUseCaseSuite) load(ed *Editor) *LoadProfileOutput {
	out, err := s.uc.ExecuteLoadProfile(s.ctx, LoadProfileInput{Session: s.session, Editor: ed})
	s.Require().NoError(err)
	return out
}

func (s *ProfileUseCaseSuite) submit(ed *Editor) (*SubmitProfileOutput, error) {
	return s.uc.ExecuteSubmitProfile(s.ctx, SubmitProfileInput{Session: s.session, Editor: ed})
}

func (s *ProfileUseCaseSuite) seedExisting() {
	s.gateway.mu.Lock()
	defer s.gateway.mu.Unlock()
	p := profile.TemplateEmpty()
	p.Headline = "Intern"
	_, err := p.AddItem(profile.SectionEducations, map[string]string{"school": "INSA"})
	s.Require().NoError(err)
	s.gateway.persist(p, nil)
}

func (s *ProfileUseCaseSuite) TestOperationsRequireSession() {
	ed := s.uc.NewEditor()
	_, err := s.uc.ExecuteLoadProfile(s.ctx, LoadProfileInput{Editor: ed})
	s.True(errors.Is(err, apperror.ErrAuthRequired))
	_, err = s.uc.ExecuteSubmitProfile(s.ctx, SubmitProfileInput{Session: session.New(session.Tokens{}, ""), Editor: ed})
	s.True(errors.Is(err, apperror.ErrAuthRequired))
	_, err = s.uc.ExecuteResolveHome(s.ctx, ResolveHomeInput{})
	s.True(errors.Is(err, apperror.ErrAuthRequired))
	s.Empty(s.gateway.calls)
}

// A first submission creates the profile and adopts identities.
func (s *ProfileUseCaseSuite) TestCreateAdoptsIdentities() {
	ed := s.uc.NewEditor()
	out := s.load(ed)
	s.False(out.Exists)
	s.False(ed.Exists())

	s.Require().NoError(ed.ApplyFieldEdit(profile.FieldHeadline, "Backend intern"))
	eduSel, err := ed.AddItem(profile.SectionEducations, map[string]string{"school": "INSA"})
	s.Require().NoError(err)
	_, err = ed.AddItem(profile.SectionSkills, map[string]string{"name": "Go"})
	s.Require().NoError(err)

	res, err := s.submit(ed)
	s.Require().NoError(err)
	s.True(res.Created)
	s.True(ed.Exists())
	s.Empty(res.Submitted)

	snap := ed.Snapshot()
	s.Equal(profile.ID("100"), snap.ID)
	s.Equal(profile.ID("101"), snap.Educations[0].ID)
	s.Equal(profile.ID("102"), snap.Skills[0].ID)
	s.Equal("ana@example.com", snap.Email)

	ok, err := ed.EditItem(profile.SectionEducations, eduSel, "degree", "MSc")
	s.Require().NoError(err)
	s.True(ok)

	// the second submission is an update by identity
	_, err = s.submit(ed)
	s.Require().NoError(err)
	s.Require().Len(s.gateway.calls, 2)
	s.Equal("create", s.gateway.calls[0].op)
	s.Equal("update", s.gateway.calls[1].op)
	s.Equal(profile.ID("100"), s.gateway.calls[1].id)
	s.Equal("MSc", s.gateway.calls[1].body.Educations[0].Degree)

	s.Require().Len(s.events.events, 2)
	s.Equal(service.ProfileCreated, s.events.events[0].Type)
	s.Equal(service.ProfileUpdated, s.events.events[1].Type)
	s.Equal("ana@example.com", s.events.events[0].Subject)
	s.True(s.cache.data["ana@example.com"])
}

// Only the changed picture travels as a binary part.
func (s *ProfileUseCaseSuite) TestPictureOnlyUpdate() {
	s.seedExisting()
	ed := s.uc.NewEditor()
	out := s.load(ed)
	s.True(out.Exists)

	ref, err := ed.SetAsset(s.ctx, asset.SlotProfilePicture, asset.NewPayload("me.png", pngBytes))
	s.Require().NoError(err)
	s.Equal(asset.StatePendingLocal, ed.Asset(asset.SlotProfilePicture).State)
	s.True(s.previewer.live[ref])

	res, err := s.submit(ed)
	s.Require().NoError(err)
	s.False(res.Created)
	s.Equal([]asset.Slot{asset.SlotProfilePicture}, res.Submitted)

	last := s.gateway.calls[len(s.gateway.calls)-1]
	s.Equal("update", last.op)
	s.Equal([]asset.Slot{asset.SlotProfilePicture}, last.assets)

	v := ed.Asset(asset.SlotProfilePicture)
	s.Equal(asset.StateRemote, v.State)
	s.Empty(s.previewer.live)

	// nothing pending: the next submission carries no binary part
	_, err = s.submit(ed)
	s.Require().NoError(err)
	s.Empty(s.gateway.calls[len(s.gateway.calls)-1].assets)
}

// A missing picture falls back to the default and never fails the load.
func (s *ProfileUseCaseSuite) TestPictureNotFoundFallsBack() {
	s.seedExisting()
	s.gateway.images[asset.SlotCoverPhoto] = asset.NewPayload("cover.png", pngBytes)

	ed := s.uc.NewEditor()
	out := s.load(ed)
	s.True(out.Exists)

	pic := ed.Asset(asset.SlotProfilePicture)
	s.True(pic.IsDefault)
	s.Equal("https://cdn.example.com/avatar.png", pic.Ref)

	cover := ed.Asset(asset.SlotCoverPhoto)
	s.Equal(asset.StateRemote, cover.State)

	view, err := s.uc.ExecuteViewProfile(s.ctx, ViewProfileInput{Session: s.session})
	s.Require().NoError(err)
	s.Equal("Intern", view.Profile.Headline)
	s.True(view.Picture.IsDefault)
	s.False(view.Cover.IsDefault)
}

// Deletion resets the editor and a later read is not-found.
func (s *ProfileUseCaseSuite) TestDeleteResets() {
	s.seedExisting()
	ed := s.uc.NewEditor()
	s.load(ed)
	_, err := ed.SetAsset(s.ctx, asset.SlotCoverPhoto, asset.NewPayload("c.png", pngBytes))
	s.Require().NoError(err)

	out, err := s.uc.ExecuteDeleteProfile(s.ctx, DeleteProfileInput{Session: s.session, Editor: ed})
	s.Require().NoError(err)
	s.Equal(session.DestinationLogin, out.Destination)

	s.False(ed.Exists())
	s.Empty(cmp.Diff(profile.TemplateEmpty(), ed.Snapshot(), deep))
	s.Empty(s.previewer.live)
	s.True(s.tokens.cleared)
	_, cached := s.cache.data["ana@example.com"]
	s.False(cached)
	s.Equal(service.ProfileDeleted, s.events.events[len(s.events.events)-1].Type)

	home, err := s.uc.ExecuteResolveHome(s.ctx, ResolveHomeInput{Session: s.session})
	s.Require().NoError(err)
	s.False(home.Exists)
	s.Equal(session.DestinationProfileCreate, home.Destination)

	reload := s.load(s.uc.NewEditor())
	s.False(reload.Exists)
}

func (s *ProfileUseCaseSuite) TestDeleteRequiresExistingProfile() {
	ed := s.uc.NewEditor()
	s.load(ed)
	_, err := s.uc.ExecuteDeleteProfile(s.ctx, DeleteProfileInput{Session: s.session, Editor: ed})
	s.True(errors.Is(err, apperror.ErrValidation))
	s.Empty(s.gateway.calls)
}

func (s *ProfileUseCaseSuite) TestFailedSubmissionPreservesState() {
	failures := []error{
		apperror.FromHTTPStatus(500, ""),
		apperror.FromHTTPStatus(403, ""),
		apperror.NewNetwork("dial tcp", errors.New("connection refused")),
	}
	for _, failure := range failures {
		s.SetupTest()
		s.seedExisting()
		ed := s.uc.NewEditor()
		s.load(ed)
		s.Require().NoError(ed.ApplyFieldEdit(profile.FieldSummary, "changed"))
		_, err := ed.AddItem(profile.SectionSkills, map[string]string{"name": "Go"})
		s.Require().NoError(err)
		_, err = ed.SetAsset(s.ctx, asset.SlotCV, asset.NewPayload("cv.pdf", []byte("%PDF-1.4\n")))
		s.Require().NoError(err)

		before := ed.Snapshot()
		beforeAssets := ed.Assets()

		s.gateway.failErr = failure
		_, err = s.submit(ed)
		s.Require().Error(err)
		s.True(errors.Is(err, failure.(*apperror.AppError).BaseError))

		s.Empty(cmp.Diff(before, ed.Snapshot(), deep))
		s.Equal(beforeAssets, ed.Assets())
		s.Len(s.previewer.live, 1)
		s.Empty(s.events.events)
	}
}

func (s *ProfileUseCaseSuite) TestInvalidAggregateIsNotSent() {
	p := profile.TemplateEmpty()
	p.ID = "7"
	for _, name := range []string{"Go", "SQL"} {
		_, err := p.AddItem(profile.SectionSkills, map[string]string{"name": name})
		s.Require().NoError(err)
	}
	p.Skills[0].ID = "3"
	p.Skills[1].ID = "3"
	s.gateway.stored = p

	ed := s.uc.NewEditor()
	s.load(ed)
	_, err := s.submit(ed)
	s.True(errors.Is(err, apperror.ErrValidation))
	s.Empty(s.gateway.calls)
}

func (s *ProfileUseCaseSuite) TestFreeTextCertificationLinkIsSubmitted() {
	ed := s.uc.NewEditor()
	s.load(ed)
	_, err := ed.AddItem(profile.SectionCertifications, map[string]string{"name": "CKA", "url": "www.cncf.io"})
	s.Require().NoError(err)

	_, err = s.submit(ed)
	s.Require().NoError(err)
	s.Require().Len(s.gateway.calls, 1)
	s.Equal("www.cncf.io", s.gateway.calls[0].body.Certifications[0].URL)
	s.Equal("www.cncf.io", ed.Snapshot().Certifications[0].URL)
}

func (s *ProfileUseCaseSuite) TestSubmitIsNotReentrant() {
	ed := s.uc.NewEditor()
	s.load(ed)

	s.gateway.block = make(chan struct{})
	s.gateway.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.submit(ed)
		done <- err
	}()
	<-s.gateway.entered

	_, err := s.submit(ed)
	s.True(errors.Is(err, apperror.ErrBusy))
	_, err = s.uc.ExecuteDeleteProfile(s.ctx, DeleteProfileInput{Session: s.session, Editor: ed})
	s.True(errors.Is(err, apperror.ErrBusy))

	close(s.gateway.block)
	s.Require().NoError(<-done)
	s.Len(s.gateway.calls, 1)
}

func (s *ProfileUseCaseSuite) TestStaleLoadIsDiscarded() {
	s.seedExisting()
	ed := s.uc.NewEditor()
	s.Require().NoError(ed.ApplyFieldEdit(profile.FieldHeadline, "local"))

	s.gateway.block = make(chan struct{})
	s.gateway.entered = make(chan struct{}, 1)

	done := make(chan *LoadProfileOutput, 1)
	go func() {
		out, err := s.uc.ExecuteLoadProfile(s.ctx, LoadProfileInput{Session: s.session, Editor: ed})
		s.NoError(err)
		done <- out
	}()
	<-s.gateway.entered
	ed.Leave(s.ctx)
	close(s.gateway.block)

	out := <-done
	s.True(out.Discarded)
	s.Equal("local", ed.Snapshot().Headline)
	s.False(ed.Exists())
}

func (s *ProfileUseCaseSuite) TestResolveHomeUsesCache() {
	s.seedExisting()

	home, err := s.uc.ExecuteResolveHome(s.ctx, ResolveHomeInput{Session: s.session})
	s.Require().NoError(err)
	s.Equal(session.DestinationProfileView, home.Destination)
	s.Zero(s.cache.hits)

	// the cached answer wins even after the backend changes
	s.gateway.stored = nil
	home, err = s.uc.ExecuteResolveHome(s.ctx, ResolveHomeInput{Session: s.session})
	s.Require().NoError(err)
	s.Equal(session.DestinationProfileView, home.Destination)
	s.Equal(1, s.cache.hits)
}

func TestSubmittedSlotsOrder(t *testing.T) {
	m := asset.NewManager(&fakePreviewer{live: map[string]bool{}}, asset.Options{}, logger.NewNop())
	ctx := context.Background()
	_, err := m.SetPending(ctx, asset.SlotCoverPhoto, asset.NewPayload("c.png", pngBytes))
	require.NoError(t, err)
	_, err = m.SetPending(ctx, asset.SlotCV, asset.NewPayload("cv.pdf", []byte("%PDF-1.4\n")))
	require.NoError(t, err)

	assert.Equal(t, []asset.Slot{asset.SlotCV, asset.SlotCoverPhoto}, submittedSlots(m.Pending()))
}

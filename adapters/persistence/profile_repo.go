package persistence

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

type memoryProfileRepo struct {
	mu      sync.Mutex
	byOwner map[string]*profile.Profile
	nextID  int64
	logger  logger.Logger
}

func NewMemoryProfileRepo(log logger.Logger) profile.Repository {
	return &memoryProfileRepo{
		byOwner: make(map[string]*profile.Profile),
		nextID:  1,
		logger:  log,
	}
}

func (r *memoryProfileRepo) GetByOwner(_ context.Context, owner string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byOwner[owner]
	if !ok {
		return nil, apperror.NewNotFound("profile", owner)
	}
	return p.Clone(), nil
}

func (r *memoryProfileRepo) Save(_ context.Context, owner string, p *profile.Profile) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := p.Clone()
	if existing, ok := r.byOwner[owner]; ok {
		if !stored.ID.IsZero() && stored.ID != existing.ID {
			return nil, apperror.NewNotFound("profile", stored.ID.String())
		}
		stored.ID = existing.ID
	} else if !stored.ID.IsZero() {
		return nil, apperror.NewNotFound("profile", stored.ID.String())
	} else {
		stored.ID = r.newID()
	}

	for i := range stored.Educations {
		r.assign(&stored.Educations[i].ID)
	}
	for i := range stored.Experiences {
		r.assign(&stored.Experiences[i].ID)
	}
	for i := range stored.Certifications {
		r.assign(&stored.Certifications[i].ID)
	}
	for i := range stored.Skills {
		r.assign(&stored.Skills[i].ID)
	}

	r.byOwner[owner] = stored
	r.logger.Debug("Profile stored", zap.String("owner", owner), zap.String("profile_id", stored.ID.String()))
	return stored.Clone(), nil
}

func (r *memoryProfileRepo) assign(id *profile.ID) {
	if id.IsZero() {
		*id = r.newID()
	}
}

func (r *memoryProfileRepo) newID() profile.ID {
	id := profile.ID(strconv.FormatInt(r.nextID, 10))
	r.nextID++
	return id
}

func (r *memoryProfileRepo) Delete(_ context.Context, owner string, id profile.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byOwner[owner]
	if !ok || p.ID != id {
		return apperror.NewNotFound("profile", id.String())
	}
	delete(r.byOwner, owner)
	return nil
}

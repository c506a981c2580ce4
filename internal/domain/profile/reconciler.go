package profile

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

// The reconciler keeps the four collections consistent: lengths change only
// through AddItem and RemoveItem, EditItem touches exactly one field of one
// record, and untouched records keep their relative order.

func unknownSection(section Section) error {
	return apperror.NewValidation(fmt.Sprintf("unknown section %q", section), nil)
}

// AddItem appends a new, unpersisted record built from the section defaults
// and the given field values. Nothing is appended if a field is unknown.
func (p *Profile) AddItem(section Section, template map[string]string) (Selector, error) {
	var (
		key string
		err error
	)
	switch section {
	case SectionEducations:
		key, err = addTo(&p.Educations, template)
	case SectionExperiences:
		key, err = addTo(&p.Experiences, template)
	case SectionCertifications:
		key, err = addTo(&p.Certifications, template)
	case SectionSkills:
		key, err = addTo(&p.Skills, template)
	default:
		return Selector{}, unknownSection(section)
	}
	if err != nil {
		return Selector{}, err
	}
	return ByKey(key), nil
}

// EditItem sets one field on the selected record. It reports false, and
// changes nothing, when the selector matches no record.
func (p *Profile) EditItem(section Section, sel Selector, field, value string) (bool, error) {
	switch section {
	case SectionEducations:
		return editIn(p.Educations, sel, field, value)
	case SectionExperiences:
		return editIn(p.Experiences, sel, field, value)
	case SectionCertifications:
		return editIn(p.Certifications, sel, field, value)
	case SectionSkills:
		return editIn(p.Skills, sel, field, value)
	default:
		return false, unknownSection(section)
	}
}

// RemoveItem deletes the selected record. It reports false when nothing matched.
func (p *Profile) RemoveItem(section Section, sel Selector) (bool, error) {
	switch section {
	case SectionEducations:
		return removeFrom(&p.Educations, sel), nil
	case SectionExperiences:
		return removeFrom(&p.Experiences, sel), nil
	case SectionCertifications:
		return removeFrom(&p.Certifications, sel), nil
	case SectionSkills:
		return removeFrom(&p.Skills, sel), nil
	default:
		return false, unknownSection(section)
	}
}

// Records returns copies of the section's records in display order.
func (p *Profile) Records(section Section) ([]SubRecord, error) {
	switch section {
	case SectionEducations:
		return copies(p.Educations), nil
	case SectionExperiences:
		return copies(p.Experiences), nil
	case SectionCertifications:
		return copies(p.Certifications), nil
	case SectionSkills:
		return copies(p.Skills), nil
	default:
		return nil, unknownSection(section)
	}
}

// Len returns the number of records in section, or -1 for an unknown section.
func (p *Profile) Len(section Section) int {
	switch section {
	case SectionEducations:
		return len(p.Educations)
	case SectionExperiences:
		return len(p.Experiences)
	case SectionCertifications:
		return len(p.Certifications)
	case SectionSkills:
		return len(p.Skills)
	default:
		return -1
	}
}

// AdoptIdentities copies backend-assigned identities from remote, which is
// the backend's view of the profile after a write. The root identity is
// assigned if missing. In each section, local records without an identity
// take, in order, the remote identities that are not already known locally.
// Identities already held are never replaced.
func (p *Profile) AdoptIdentities(remote *Profile) error {
	if !remote.ID.IsZero() {
		if err := p.AssignIdentity(remote.ID); err != nil {
			return err
		}
	}
	adopt(p.Educations, remote.Educations)
	adopt(p.Experiences, remote.Experiences)
	adopt(p.Certifications, remote.Certifications)
	adopt(p.Skills, remote.Skills)

	p.FirstName = remote.FirstName
	p.LastName = remote.LastName
	p.Email = remote.Email
	if remote.CoverPhotoURL != "" {
		p.CoverPhotoURL = remote.CoverPhotoURL
	}
	return nil
}

func (p *Profile) ensureLocalKeys() {
	ensureKeys(p.Educations)
	ensureKeys(p.Experiences)
	ensureKeys(p.Certifications)
	ensureKeys(p.Skills)
}

func addTo[T any, P recordPtr[T]](items *[]T, template map[string]string) (string, error) {
	var item T
	rec := P(&item)

	fields := make([]string, 0, len(template))
	for f := range template {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if err := rec.SetField(f, template[f]); err != nil {
			return "", err
		}
	}

	key := uuid.NewString()
	rec.setLocalKey(key)
	*items = append(*items, item)
	return key, nil
}

func editIn[T any, P recordPtr[T]](items []T, sel Selector, field, value string) (bool, error) {
	i := locate[T, P](items, sel)
	if i < 0 {
		return false, nil
	}
	if err := P(&items[i]).SetField(field, value); err != nil {
		return false, err
	}
	return true, nil
}

func removeFrom[T any, P recordPtr[T]](items *[]T, sel Selector) bool {
	i := locate[T, P](*items, sel)
	if i < 0 {
		return false
	}
	*items = append((*items)[:i], (*items)[i+1:]...)
	return true
}

func copies[T any, P recordPtr[T]](items []T) []SubRecord {
	out := make([]SubRecord, len(items))
	for i := range items {
		item := items[i]
		out[i] = P(&item)
	}
	return out
}

func ensureKeys[T any, P recordPtr[T]](items []T) {
	for i := range items {
		rec := P(&items[i])
		if rec.LocalKey() == "" {
			rec.setLocalKey(uuid.NewString())
		}
	}
}

// adopt pairs new local records with new remote identities by position.
// Records carry no client token the backend echoes back, so this relies on
// the backend returning newly created records in submission order; a
// backend that reorders them would swap their identities.
func adopt[T any, P recordPtr[T]](local, remote []T) {
	known := make(map[ID]struct{}, len(local))
	for i := range local {
		if id := P(&local[i]).Identity(); !id.IsZero() {
			known[id] = struct{}{}
		}
	}

	candidates := make([]ID, 0, len(remote))
	for i := range remote {
		id := P(&remote[i]).Identity()
		if id.IsZero() {
			continue
		}
		if _, ok := known[id]; ok {
			continue
		}
		candidates = append(candidates, id)
	}

	next := 0
	for i := range local {
		if next >= len(candidates) {
			return
		}
		rec := P(&local[i])
		if rec.Identity().IsZero() {
			rec.setIdentity(candidates[next])
			next++
		}
	}
}

package profile

import (
	"encoding/json"
	"fmt"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

// Hydrate decodes the backend representation of a profile. Unknown fields are
// ignored, missing or null collections become empty, every record gets a
// local key, and the result is checked structurally before it is returned.
// Free-text values such as certification links are never format-checked.
func Hydrate(data []byte) (*Profile, error) {
	p := &Profile{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, apperror.NewValidation("profile representation is not valid JSON", err)
	}
	normalize(p)
	if err := checkBoundary(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the aggregate before it is sent to the backend.
func (p *Profile) Validate() error {
	return checkBoundary(p)
}

func normalize(p *Profile) {
	if p.Educations == nil {
		p.Educations = []Education{}
	}
	if p.Experiences == nil {
		p.Experiences = []Experience{}
	}
	if p.Certifications == nil {
		p.Certifications = []Certification{}
	}
	if p.Skills == nil {
		p.Skills = []Skill{}
	}
	p.ensureLocalKeys()
}

func checkBoundary(p *Profile) error {
	for _, section := range Sections {
		if err := uniqueIdentities(p, section); err != nil {
			return err
		}
	}
	return nil
}

// Identity addressing needs identities to be unique within a section.
func uniqueIdentities(p *Profile, section Section) error {
	records, err := p.Records(section)
	if err != nil {
		return err
	}
	seen := make(map[ID]struct{}, len(records))
	for _, r := range records {
		id := r.Identity()
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			return apperror.NewValidation(fmt.Sprintf("duplicate %s identity %s", section, id), nil)
		}
		seen[id] = struct{}{}
	}
	return nil
}

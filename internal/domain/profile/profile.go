package profile

import (
	"fmt"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

// Profile is the aggregate root: scalar fields plus four ordered collections.
// The zero ID means the backend has never accepted this profile.
type Profile struct {
	ID       ID     `json:"id,omitempty"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Location string `json:"location"`
	Phone    string `json:"phone"`

	Educations     []Education     `json:"educations"`
	Experiences    []Experience    `json:"experiences"`
	Certifications []Certification `json:"certifications"`
	Skills         []Skill         `json:"skills"`

	// Read-only, owned by the backend.
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	CoverPhotoURL string `json:"coverPhotoUrl,omitempty"`
}

// Fields that ApplyFieldEdit accepts.
const (
	FieldHeadline = "headline"
	FieldSummary  = "summary"
	FieldLocation = "location"
	FieldPhone    = "phone"
)

func TemplateEmpty() *Profile {
	return &Profile{
		Educations:     []Education{},
		Experiences:    []Experience{},
		Certifications: []Certification{},
		Skills:         []Skill{},
	}
}

func (p *Profile) Exists() bool {
	return !p.ID.IsZero()
}

func (p *Profile) ApplyFieldEdit(field, value string) error {
	switch field {
	case FieldHeadline:
		p.Headline = value
	case FieldSummary:
		p.Summary = value
	case FieldLocation:
		p.Location = value
	case FieldPhone:
		p.Phone = value
	default:
		return apperror.NewValidation(fmt.Sprintf("field %q cannot be edited", field), nil)
	}
	return nil
}

// AssignIdentity sets the aggregate identity once. Re-assigning the same value
// is accepted; a different value is rejected.
func (p *Profile) AssignIdentity(id ID) error {
	if id.IsZero() {
		return apperror.NewInternal("backend returned an empty profile identity", nil)
	}
	if p.ID.IsZero() || p.ID == id {
		p.ID = id
		return nil
	}
	return apperror.NewInternal(fmt.Sprintf("profile identity %s cannot change to %s", p.ID, id), nil)
}

// Clone returns a deep copy; local keys are preserved.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Educations = append([]Education{}, p.Educations...)
	c.Experiences = append([]Experience{}, p.Experiences...)
	c.Certifications = append([]Certification{}, p.Certifications...)
	c.Skills = append([]Skill{}, p.Skills...)
	return &c
}

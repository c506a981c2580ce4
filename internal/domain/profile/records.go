package profile

import (
	"fmt"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

type Section string

const (
	SectionEducations     Section = "educations"
	SectionExperiences    Section = "experiences"
	SectionCertifications Section = "certifications"
	SectionSkills         Section = "skills"
)

var Sections = []Section{SectionEducations, SectionExperiences, SectionCertifications, SectionSkills}

func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown section %q", s), nil)
}

// SubRecord is one entry of a profile collection. Field names are the wire
// names used by the backend.
type SubRecord interface {
	Identity() ID
	LocalKey() string
	SetField(field, value string) error
	Field(field string) (string, bool)

	setIdentity(id ID)
	setLocalKey(key string)
}

type record struct {
	ID  ID `json:"id,omitempty"`
	key string
}

func (r *record) Identity() ID           { return r.ID }
func (r *record) LocalKey() string       { return r.key }
func (r *record) setIdentity(id ID)      { r.ID = id }
func (r *record) setLocalKey(key string) { r.key = key }

func unknownField(section Section, field string) error {
	return apperror.NewValidation(fmt.Sprintf("unknown field %q for %s", field, section), nil)
}

type Education struct {
	record
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Description  string `json:"description"`
}

func (e *Education) fields() map[string]*string {
	return map[string]*string{
		"school":       &e.School,
		"degree":       &e.Degree,
		"fieldOfStudy": &e.FieldOfStudy,
		"startDate":    &e.StartDate,
		"endDate":      &e.EndDate,
		"description":  &e.Description,
	}
}

func (e *Education) SetField(field, value string) error {
	ptr, ok := e.fields()[field]
	if !ok {
		return unknownField(SectionEducations, field)
	}
	*ptr = value
	return nil
}

func (e *Education) Field(field string) (string, bool) {
	ptr, ok := e.fields()[field]
	if !ok {
		return "", false
	}
	return *ptr, true
}

type Experience struct {
	record
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

func (e *Experience) fields() map[string]*string {
	return map[string]*string{
		"title":       &e.Title,
		"company":     &e.Company,
		"location":    &e.Location,
		"startDate":   &e.StartDate,
		"endDate":     &e.EndDate,
		"description": &e.Description,
	}
}

func (e *Experience) SetField(field, value string) error {
	ptr, ok := e.fields()[field]
	if !ok {
		return unknownField(SectionExperiences, field)
	}
	*ptr = value
	return nil
}

func (e *Experience) Field(field string) (string, bool) {
	ptr, ok := e.fields()[field]
	if !ok {
		return "", false
	}
	return *ptr, true
}

type Certification struct {
	record
	Name      string `json:"name"`
	IssuedBy  string `json:"issuedBy"`
	IssueDate string `json:"issueDate"`
	URL       string `json:"url"`
}

func (c *Certification) fields() map[string]*string {
	return map[string]*string{
		"name":      &c.Name,
		"issuedBy":  &c.IssuedBy,
		"issueDate": &c.IssueDate,
		"url":       &c.URL,
	}
}

func (c *Certification) SetField(field, value string) error {
	ptr, ok := c.fields()[field]
	if !ok {
		return unknownField(SectionCertifications, field)
	}
	*ptr = value
	return nil
}

func (c *Certification) Field(field string) (string, bool) {
	ptr, ok := c.fields()[field]
	if !ok {
		return "", false
	}
	return *ptr, true
}

type Skill struct {
	record
	Name string `json:"name"`
}

func (s *Skill) SetField(field, value string) error {
	if field != "name" {
		return unknownField(SectionSkills, field)
	}
	s.Name = value
	return nil
}

func (s *Skill) Field(field string) (string, bool) {
	if field != "name" {
		return "", false
	}
	return s.Name, true
}

// recordPtr lets the reconciler work on []T while calling pointer methods.
type recordPtr[T any] interface {
	*T
	SubRecord
}

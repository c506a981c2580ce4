package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
)

// editScript is the YAML document accepted by "profile apply". Steps run in
// field order: scalar fields, edits, removals, additions, assets, discards.
//
//	fields:
//	  headline: Backend intern
//	edit:
//	  - {section: skills, id: 12, field: name, value: Go}
//	remove:
//	  - {section: educations, position: 0}
//	add:
//	  - section: certifications
//	    values: {name: CKA, url: https://example.com/cka}
//	assets:
//	  profilePicture: ./me.png
//	discard: [coverPhoto]
type editScript struct {
	Fields  map[string]string `yaml:"fields"`
	Edit    []itemEdit        `yaml:"edit"`
	Remove  []itemRef         `yaml:"remove"`
	Add     []itemAdd         `yaml:"add"`
	Assets  map[string]string `yaml:"assets"`
	Discard []string          `yaml:"discard"`
}

type itemRef struct {
	Section  string `yaml:"section"`
	ID       string `yaml:"id"`
	Position *int   `yaml:"position"`
}

type itemEdit struct {
	itemRef `yaml:",inline"`
	Field   string `yaml:"field"`
	Value   string `yaml:"value"`
}

type itemAdd struct {
	Section string            `yaml:"section"`
	Values  map[string]string `yaml:"values"`
}

// editTarget is the part of the profile editor a script drives.
type editTarget interface {
	ApplyFieldEdit(field, value string) error
	AddItem(section profile.Section, template map[string]string) (profile.Selector, error)
	EditItem(section profile.Section, sel profile.Selector, field, value string) (bool, error)
	RemoveItem(section profile.Section, sel profile.Selector) (bool, error)
	SetAsset(ctx context.Context, slot asset.Slot, payload asset.Payload) (string, error)
	DiscardAsset(ctx context.Context, slot asset.Slot) error
}

func parseEditScript(data []byte) (*editScript, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s editScript
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid edit script: %w", err)
	}
	return &s, nil
}

func loadEditScript(path string) (*editScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseEditScript(data)
}

func (r itemRef) resolve() (profile.Section, profile.Selector, error) {
	section, err := profile.ParseSection(r.Section)
	if err != nil {
		return "", profile.Selector{}, err
	}
	switch {
	case r.ID != "" && r.Position != nil:
		return "", profile.Selector{}, fmt.Errorf("%s: give either id or position, not both", r.Section)
	case r.ID != "":
		return section, profile.ByIdentity(profile.ID(r.ID)), nil
	case r.Position != nil:
		return section, profile.ByPosition(*r.Position), nil
	default:
		return "", profile.Selector{}, fmt.Errorf("%s: id or position is required", r.Section)
	}
}

// applyReport lists the steps that did not match anything. Unmatched edits
// and removals are no-ops, not errors.
type applyReport struct {
	Unmatched []string
	Staged    []asset.Slot
}

// apply runs the script against ed. Asset paths are relative to baseDir.
func (s *editScript) apply(ctx context.Context, ed editTarget, baseDir string) (*applyReport, error) {
	report := &applyReport{}

	fields := make([]string, 0, len(s.Fields))
	for f := range s.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if err := ed.ApplyFieldEdit(f, s.Fields[f]); err != nil {
			return nil, err
		}
	}

	for _, e := range s.Edit {
		section, sel, err := e.resolve()
		if err != nil {
			return nil, err
		}
		ok, err := ed.EditItem(section, sel, e.Field, e.Value)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Unmatched = append(report.Unmatched, fmt.Sprintf("edit %s %s", section, sel))
		}
	}

	for _, r := range s.Remove {
		section, sel, err := r.resolve()
		if err != nil {
			return nil, err
		}
		ok, err := ed.RemoveItem(section, sel)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Unmatched = append(report.Unmatched, fmt.Sprintf("remove %s %s", section, sel))
		}
	}

	for _, a := range s.Add {
		section, err := profile.ParseSection(a.Section)
		if err != nil {
			return nil, err
		}
		if _, err := ed.AddItem(section, a.Values); err != nil {
			return nil, err
		}
	}

	slots := make([]string, 0, len(s.Assets))
	for name := range s.Assets {
		slots = append(slots, name)
	}
	sort.Strings(slots)
	for _, name := range slots {
		slot, err := asset.ParseSlot(name)
		if err != nil {
			return nil, err
		}
		path := s.Assets[name]
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := ed.SetAsset(ctx, slot, asset.NewPayload(filepath.Base(path), data)); err != nil {
			return nil, err
		}
		report.Staged = append(report.Staged, slot)
	}

	for _, name := range s.Discard {
		slot, err := asset.ParseSlot(name)
		if err != nil {
			return nil, err
		}
		if err := ed.DiscardAsset(ctx, slot); err != nil {
			return nil, err
		}
	}
	return report, nil
}

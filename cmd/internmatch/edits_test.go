package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/internmatch-client/adapters/media_storage"
	profileUC "github.com/khoahotran/internmatch-client/internal/application/usecase/profile"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

func newTestEditor() *profileUC.Editor {
	uc := profileUC.NewProfileUseCase(nil, nil, nil, nil, media_storage.NewMemoryPreviewer(), asset.Options{
		DefaultProfilePicture: "default.png",
	}, logger.NewNop())
	return uc.NewEditor()
}

func TestParseEditScriptRejectsUnknownKeys(t *testing.T) {
	_, err := parseEditScript([]byte("fields:\n  headline: x\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestApplyEditScript(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "me.png"), []byte("\x89PNG\r\n\x1a\nrest"), 0o600))

	ed := newTestEditor()
	_, err := ed.AddItem(profile.SectionSkills, map[string]string{"name": "Java"})
	require.NoError(t, err)
	_, err = ed.AddItem(profile.SectionSkills, map[string]string{"name": "SQL"})
	require.NoError(t, err)

	script, err := parseEditScript([]byte(`
fields:
  headline: Backend intern
  location: Ho Chi Minh City
edit:
  - {section: skills, position: 0, field: name, value: Go}
  - {section: skills, id: 999, field: name, value: Rust}
remove:
  - {section: skills, position: 1}
add:
  - section: educations
    values: {school: HCMUS, degree: BSc}
assets:
  profilePicture: me.png
`))
	require.NoError(t, err)

	report, err := script.apply(ctx, ed, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"edit skills id:999"}, report.Unmatched)
	assert.Equal(t, []asset.Slot{asset.SlotProfilePicture}, report.Staged)

	p := ed.Snapshot()
	assert.Equal(t, "Backend intern", p.Headline)
	assert.Equal(t, "Ho Chi Minh City", p.Location)
	require.Len(t, p.Skills, 1)
	assert.Equal(t, "Go", p.Skills[0].Name)
	require.Len(t, p.Educations, 1)
	assert.Equal(t, "HCMUS", p.Educations[0].School)

	pic := ed.Asset(asset.SlotProfilePicture)
	assert.Equal(t, asset.StatePendingLocal, pic.State)
	require.NotNil(t, pic.Payload)
	assert.Equal(t, "me.png", pic.Payload.Filename)
}

func TestApplyEditScriptErrors(t *testing.T) {
	ctx := context.Background()
	cases := []string{
		"edit:\n  - {section: skills, field: name, value: Go}\n",
		"edit:\n  - {section: skills, id: 1, position: 0, field: name, value: Go}\n",
		"add:\n  - {section: hobbies, values: {name: x}}\n",
		"fields:\n  firstName: Ana\n",
		"assets:\n  avatar: me.png\n",
		"discard: [avatar]\n",
	}
	for _, doc := range cases {
		script, err := parseEditScript([]byte(doc))
		require.NoError(t, err, doc)
		_, err = script.apply(ctx, newTestEditor(), t.TempDir())
		assert.Error(t, err, doc)
	}
}

func TestApplyDiscard(t *testing.T) {
	ctx := context.Background()
	ed := newTestEditor()
	_, err := ed.SetAsset(ctx, asset.SlotCV, asset.NewPayload("cv.pdf", []byte("%PDF-1.4\n")))
	require.NoError(t, err)

	script, err := parseEditScript([]byte("discard: [cv]\n"))
	require.NoError(t, err)
	_, err = script.apply(ctx, ed, ".")
	require.NoError(t, err)
	assert.Equal(t, asset.StateUnset, ed.Asset(asset.SlotCV).State)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 3, exitCode(apperror.NewAuthRequired("x")))
	assert.Equal(t, 2, exitCode(apperror.NewValidation("x", nil)))
	assert.Equal(t, 1, exitCode(apperror.NewNetwork("x", nil)))
	assert.Equal(t, "Please log in to continue", describe(apperror.NewAuthRequired("x")))
}

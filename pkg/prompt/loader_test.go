package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o644))
}

func TestLoadExplicitVersion(t *testing.T) {
	base := t.TempDir()
	writePrompt(t, filepath.Join(base, "stages"), "big_idea", `
v1 = "first draft"
v2 = "second draft"
`)
	s := NewStore(base)

	text, err := s.LoadStage("big_idea", "1")
	require.NoError(t, err)
	assert.Equal(t, "first draft", text)

	// Version labels may be given with or without the v prefix.
	text, err = s.LoadStage("big_idea", "v2")
	require.NoError(t, err)
	assert.Equal(t, "second draft", text)
}

func TestLoadLatestPicksMaxInteger(t *testing.T) {
	base := t.TempDir()
	writePrompt(t, filepath.Join(base, "stages"), "hero", `
v1 = "one"
v10 = "ten"
v2 = "two"
notes = "not a version"
`)
	s := NewStore(base)

	latest, err := s.LoadStage("hero", "latest")
	require.NoError(t, err)
	assert.Equal(t, "ten", latest)

	// latest always equals the highest explicit version.
	vmax, err := s.LoadStage("hero", "10")
	require.NoError(t, err)
	assert.Equal(t, vmax, latest)
}

func TestLoadErrors(t *testing.T) {
	base := t.TempDir()
	writePrompt(t, filepath.Join(base, "general"), "situation_and_tone", `v1 = "tone"`)
	writePrompt(t, filepath.Join(base, "general"), "empty", `notes = "nothing versioned"`)
	s := NewStore(base)

	t.Run("directory missing", func(t *testing.T) {
		_, err := NewStore(filepath.Join(base, "nope")).LoadGeneral("situation_and_tone", "latest")
		assert.ErrorIs(t, err, ErrDirectoryNotFound)
	})

	t.Run("prompt missing", func(t *testing.T) {
		_, err := s.LoadGeneral("missing", "latest")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("version missing", func(t *testing.T) {
		_, err := s.LoadGeneral("situation_and_tone", "9")
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})

	t.Run("no versioned content", func(t *testing.T) {
		_, err := s.LoadGeneral("empty", "latest")
		assert.ErrorIs(t, err, ErrNoVersionedContent)
	})
}

func TestLoadRootDocuments(t *testing.T) {
	base := t.TempDir()
	writePrompt(t, base, "tutorial_prompt", `
v1 = "old"
v2 = "Welcome to {stage_title}. {stages_list} {chat} {doc}"
`)
	s := NewStore(base)

	text, err := s.Load("tutorial_prompt", "2")
	require.NoError(t, err)
	assert.Contains(t, text, "{stage_title}")
}

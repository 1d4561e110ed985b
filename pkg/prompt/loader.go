// Package prompt loads versioned prompt documents and composes system
// prompts from them. A prompt document is a TOML file whose keys are
// version labels (v1, v2, ...) and whose values are prompt text.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	ErrDirectoryNotFound  = errors.New("prompt directory not found")
	ErrNotFound           = errors.New("prompt not found")
	ErrVersionNotFound    = errors.New("prompt version not found")
	ErrNoVersionedContent = errors.New("no versioned content")
)

// Store resolves prompt references against a directory tree of TOML
// documents. General fragments (situation/tone, response style) live under
// general/, per-stage prompts under stages/, and everything else (tutorial
// scaffolding) at the root. Lookups re-read storage every time; prompts are
// deployment data that can change under a running server.
type Store struct {
	Base string
}

func NewStore(base string) *Store {
	return &Store{Base: base}
}

func (s *Store) generalDir() string { return filepath.Join(s.Base, "general") }
func (s *Store) stagesDir() string  { return filepath.Join(s.Base, "stages") }

// LoadGeneral loads a shared prompt fragment such as situation_and_tone.
func (s *Store) LoadGeneral(name, version string) (string, error) {
	return load(s.generalDir(), name, version)
}

// LoadStage loads the prompt for a single worldbuilding stage.
func (s *Store) LoadStage(name, version string) (string, error) {
	return load(s.stagesDir(), name, version)
}

// Load loads a document from the store root, e.g. tutorial_prompt.
func (s *Store) Load(name, version string) (string, error) {
	return load(s.Base, name, version)
}

func load(dir, name, version string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	path := filepath.Join(dir, name+".toml")
	var versions map[string]string
	if _, err := toml.DecodeFile(path, &versions); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}

	key := version
	if version == "latest" {
		key, err = latestVersion(versions)
		if err != nil {
			return "", fmt.Errorf("%w in %s", err, path)
		}
	} else if !strings.HasPrefix(version, "v") {
		key = "v" + version
	}

	text, ok := versions[key]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrVersionNotFound, key, path)
	}
	return text, nil
}

// latestVersion picks the v<int> key with the largest integer suffix.
func latestVersion(versions map[string]string) (string, error) {
	best := -1
	var key string
	for k := range versions {
		if !strings.HasPrefix(k, "v") {
			continue
		}
		n, err := strconv.Atoi(k[1:])
		if err != nil {
			continue
		}
		if n > best {
			best = n
			key = k
		}
	}
	if best < 0 {
		return "", ErrNoVersionedContent
	}
	return key, nil
}

// Package credentials keeps the two session flags (auth token and role) between desk runs.
package credentials

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Flags struct {
	Token string `yaml:"token"`
	Role  string `yaml:"role"`
}

func (f Flags) LoggedIn() bool { return f.Token != "" }

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath is the session file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating user config dir")
	}
	return filepath.Join(dir, "ssacademy", "session.yaml"), nil
}

// Load returns empty flags when nothing was saved yet.
func (s *Store) Load() (Flags, error) {
	var f Flags
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, errors.Wrap(err, "reading session file")
	}
	if err = yaml.Unmarshal(data, &f); err != nil {
		return Flags{}, errors.Wrap(err, "decoding session file")
	}
	return f, nil
}

func (s *Store) Save(f Flags) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encoding session file")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}
	return errors.Wrap(os.WriteFile(s.path, data, 0o600), "writing session file")
}

// Clear forgets both flags (logout).
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}

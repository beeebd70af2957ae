package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store is the per-user local state directory: the key/value database that
// stands in for browser localStorage plus small best-effort UI state.
type Store struct {
	Dir string
}

// ConfigDir resolves the user's state directory.
//
// Order: KANBAN_CONFIG_DIR, then $XDG_CONFIG_HOME/kanban, then ~/.config/kanban.
func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching the real home dir).
	if v := strings.TrimSpace(os.Getenv("KANBAN_CONFIG_DIR")); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); v != "" {
		return filepath.Join(v, "kanban"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kanban"), nil
}

// Open returns a Store rooted at dir, or at ConfigDir when dir is empty.
func Open(dir string) (Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return Store{}, err
		}
		dir = d
	}
	return Store{Dir: filepath.Clean(dir)}, nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: missing dir")
	}
	return os.MkdirAll(s.Dir, 0o700)
}

// Path joins name onto the store directory.
func (s Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// WriteFileAtomic writes b to path through a temp file in the same directory
// and renames it into place.
func WriteFileAtomic(path string, b []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

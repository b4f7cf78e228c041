package screenshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Store writes PNG files to <dir>/steam/<id>.png.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Join(dir, "steam")}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}

func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.path(id))
	return !errors.Is(err, fs.ErrNotExist)
}

func (s *Store) Save(id string, png []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(id), png, 0o644)
}

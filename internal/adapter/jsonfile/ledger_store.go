package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/steam-claimer/internal/entity"
)

// LedgerStore keeps the ledger document as a single JSON file.
type LedgerStore struct {
	path string
}

// NewLedgerStore creates a store backed by the file at path.
func NewLedgerStore(path string) *LedgerStore {
	return &LedgerStore{path: path}
}

// Load reads the document; a missing file is an empty ledger.
func (s *LedgerStore) Load(ctx context.Context) (entity.LedgerDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.LedgerDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", s.path, err)
	}

	doc := entity.LedgerDocument{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", s.path, err)
	}
	return doc, nil
}

// Save replaces the file atomically.
func (s *LedgerStore) Save(ctx context.Context, doc entity.LedgerDocument) error {
	return writeJSON(s.path, doc)
}

// Exporter writes per-user ledger documents into a directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter writing <dir>/<user>.json files.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

func (e *Exporter) Export(ctx context.Context, user string, entries map[string]entity.LedgerEntry) error {
	return writeJSON(e.Path(user), entries)
}

// Path returns the export file for user.
func (e *Exporter) Path(user string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, user)
	return filepath.Join(e.dir, safe+".json")
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

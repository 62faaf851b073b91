package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDir is the per-project directory holding ctxkeeper state.
const DefaultDir = ".ctxkeeper"

// DefaultFile is the memory file name inside DefaultDir.
const DefaultFile = "memory.json"

// ErrVersionMismatch is returned by Load when the file was written with a
// schema version this build does not understand.
var ErrVersionMismatch = errors.New("memory: unsupported schema version")

// Persister loads and saves a project's memory store.
type Persister interface {
	Load(projectID string) (Store, error)
	Save(s Store) error
}

// FileStore persists a store as one indented JSON document.
type FileStore struct {
	Path string
}

// DefaultPath returns the memory file path for a project root.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, DefaultDir, DefaultFile)
}

// NewFileStore returns a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the store from disk. A missing file yields an empty store and
// os.ErrNotExist wrapped in the returned error, so callers can tell a fresh
// project from a damaged one.
func (f *FileStore) Load(projectID string) (Store, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return NewStore(projectID), fmt.Errorf("memory: read %s: %w", f.Path, err)
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return NewStore(projectID), fmt.Errorf("memory: decode %s: %w", f.Path, err)
	}
	if s.Version != SchemaVersion {
		return NewStore(projectID), fmt.Errorf("%w: %d in %s", ErrVersionMismatch, s.Version, f.Path)
	}
	if s.Entries == nil {
		s.Entries = []Entry{}
	}
	if s.ProjectID == "" {
		s.ProjectID = projectID
	}
	return s, nil
}

// Save writes the store atomically: a temp file in the same directory is
// written and then renamed over the target.
func (f *FileStore) Save(s Store) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("memory: create dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, DefaultFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("memory: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("memory: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("memory: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("memory: rename: %w", err)
	}
	return nil
}

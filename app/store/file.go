package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"zodo/app/codec"
	"zodo/app/models"
)

// FileStore keeps the slot in a single file whose extension selects the
// format (.json, .yaml/.yml or .toml).
type FileStore struct {
	path   string
	format codec.Format
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, format: codec.FormatFromPath(path)}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (*models.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading %s: %w", s.path, err)
	}
	rec, err := codec.Decode(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.path, err)
	}
	return &rec, nil
}

// Save writes to a temporary file and renames it over the slot.
func (s *FileStore) Save(_ context.Context, rec models.Record) error {
	data, err := codec.Encode(rec, s.format)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saving %s: creating directory: %w", s.path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close(context.Context) error { return nil }

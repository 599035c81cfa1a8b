package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore implements Store on a local directory. Used by the batch CLI and
// in development; keys map directly to relative file paths.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *FSStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

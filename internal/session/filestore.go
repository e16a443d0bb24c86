package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore persists one credential blob per provider username.
type BlobStore interface {
	Load(username string) ([]byte, error)
	Store(username string, blob []byte) error
	Delete(username string) error
	Exists(username string) bool
}

// FileStore keeps credential blobs as JSON files under a sessions directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the sessions directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(username string) string {
	// Usernames are validated upstream; Base guards against separators anyway.
	return filepath.Join(s.dir, filepath.Base(username)+".json")
}

// Load reads the blob for username. Missing files surface as os.ErrNotExist.
func (s *FileStore) Load(username string) ([]byte, error) {
	blob, err := os.ReadFile(s.path(username))
	if err != nil {
		return nil, fmt.Errorf("failed to load credential blob: %w", err)
	}
	return blob, nil
}

// Store writes the blob atomically via a temp file rename.
func (s *FileStore) Store(username string, blob []byte) error {
	target := s.path(username)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("failed to write credential blob: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to persist credential blob: %w", err)
	}
	return nil
}

// Delete removes the blob. Deleting an absent blob is not an error.
func (s *FileStore) Delete(username string) error {
	err := os.Remove(s.path(username))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete credential blob: %w", err)
	}
	return nil
}

// Exists reports whether a blob is persisted for username.
func (s *FileStore) Exists(username string) bool {
	_, err := os.Stat(s.path(username))
	return err == nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonathan/cover-letter-generator/internal/types"
)

// FileStore keeps everything in one JSON document, written with mode 0600.
type FileStore struct {
	path       string
	passphrase string
	mu         sync.Mutex
}

type fileDocument struct {
	Credential *storedCredential    `json:"credential,omitempty"`
	Profile    *types.ResumeProfile `json:"profile,omitempty"`
}

// NewFileStore returns a store backed by path. The file is created on first save.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) LoadCredential(_ context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Credential{}, err
	}
	if doc.Credential == nil {
		return Credential{}, ErrNotFound
	}
	return decodeCredential(*doc.Credential, s.passphrase)
}

func (s *FileStore) SaveCredential(_ context.Context, cred Credential) error {
	sc, err := encodeCredential(cred, s.passphrase)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Credential = &sc
	return s.write(doc)
}

func (s *FileStore) LoadProfile(_ context.Context) (*types.ResumeProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Profile == nil {
		return nil, ErrNotFound
	}
	return doc.Profile, nil
}

func (s *FileStore) SaveProfile(_ context.Context, profile *types.ResumeProfile) error {
	if _, err := marshalProfile(profile); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	copied := *profile
	doc.Profile = &copied
	return s.write(doc)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (fileDocument, error) {
	var doc fileDocument
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("failed to read store %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse store %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file atomically.
func (s *FileStore) write(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

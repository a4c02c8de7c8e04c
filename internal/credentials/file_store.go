package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/fmuoria/career-bot/internal/models"
)

// table reads and rewrites a whole credential file in one format
type table interface {
	read(path string) ([]models.Credential, error)
	write(path string, records []models.Credential) error
}

// FileStore keeps the credential table in a single file. Every query reads
// the whole file and every insert rewrites it. The mutex only serializes
// callers inside this process; other processes writing the same file are
// not coordinated.
type FileStore struct {
	mu    sync.Mutex
	path  string
	table table
}

var _ Store = (*FileStore)(nil)

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load returns all records, creating an empty file first if needed
func (s *FileStore) Load(ctx context.Context) ([]models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() ([]models.Credential, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		if err := s.table.write(s.path, nil); err != nil {
			return nil, fmt.Errorf("failed to create credential file %s: %w", s.path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat credential file %s: %w", s.path, err)
	}

	records, err := s.table.read(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file %s: %w", s.path, err)
	}
	return records, nil
}

// Get returns the password of the first matching identifier
func (s *FileStore) Get(ctx context.Context, identifier string) (string, bool, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return "", false, err
	}
	for _, r := range records {
		if r.Identifier == identifier {
			return r.Password, true, nil
		}
	}
	return "", false, nil
}

// PutIfAbsent appends the pair and rewrites the file unless the identifier exists
func (s *FileStore) PutIfAbsent(ctx context.Context, identifier, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.Identifier == identifier {
			return false, nil
		}
	}

	records = append(records, models.Credential{Identifier: identifier, Password: password})
	if err := s.table.write(s.path, records); err != nil {
		return false, fmt.Errorf("failed to write credential file %s: %w", s.path, err)
	}
	return true, nil
}

// Verify reports whether identifier and password both match one record
func (s *FileStore) Verify(ctx context.Context, identifier, password string) (bool, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.Identifier == identifier && r.Password == password {
			return true, nil
		}
	}
	return false, nil
}

// Close is a no-op; the file is opened per operation
func (s *FileStore) Close() error {
	return nil
}

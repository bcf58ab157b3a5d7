package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore keeps the credential mapping in a single JSON document on disk.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		values: make(map[string]string),
	}
}

func (s *FileStore) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run, nothing cached yet.
			return nil
		}
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}

	s.values = values
	return nil
}

func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok
}

func (s *FileStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

var _ Store = (*FileStore)(nil)

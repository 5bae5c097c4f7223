package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
)

// MockFileStore is an in-memory FileStore for tests
type MockFileStore struct {
	files map[string][]byte
	mu    sync.RWMutex

	// RemoveErr, when set, is returned by every Remove call
	RemoveErr error
}

// NewMockFileStore creates an empty mock store
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		files: make(map[string][]byte),
	}
}

// Save stores the content under mock://name
func (m *MockFileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	path := "mock://" + filepath.Base(name)
	m.mu.Lock()
	m.files[path] = content
	m.mu.Unlock()

	return path, nil
}

// Open returns the stored content
func (m *MockFileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	content, exists := m.files[path]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Remove deletes the stored content
func (m *MockFileStore) Remove(ctx context.Context, path string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	if path == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.files, path)
	m.mu.Unlock()

	return nil
}

// Files returns a copy of all stored files (for testing assertions)
func (m *MockFileStore) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		files[k] = v
	}
	return files
}

// FileExists checks if a path exists in mock storage
func (m *MockFileStore) FileExists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[path]
	return exists
}

// Clear removes all files from mock storage
func (m *MockFileStore) Clear() {
	m.mu.Lock()
	m.files = make(map[string][]byte)
	m.mu.Unlock()
}

// ErrMockRemove is a ready-made failure for RemoveErr
var ErrMockRemove = errors.New("mock remove failure")

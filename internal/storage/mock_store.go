package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MockStore provides an in-memory BlobStore for testing. Failures can be
// injected per path and operation.
type MockStore struct {
	mu       sync.RWMutex
	files    map[string][]byte
	modes    map[string]os.FileMode
	dirs     map[string]bool
	failures map[string]error
}

// NewMockStore creates a mock blob store.
func NewMockStore() *MockStore {
	return &MockStore{
		files:    make(map[string][]byte),
		modes:    make(map[string]os.FileMode),
		dirs:     make(map[string]bool),
		failures: make(map[string]error),
	}
}

// Fail makes op ("read", "write", "delete", "stat") on path return err.
func (m *MockStore) Fail(op, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+":"+filepath.Clean(path)] = err
}

// AddDir marks path as an existing directory.
func (m *MockStore) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
}

// Files returns the stored paths in sorted order.
func (m *MockStore) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for path := range m.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (m *MockStore) failure(op, path string) error {
	return m.failures[op+":"+filepath.Clean(path)]
}

// Write saves data to a file.
func (m *MockStore) Write(path string, data []byte, mode os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("write", path); err != nil {
		return err
	}

	path = filepath.Clean(path)
	m.files[path] = append([]byte(nil), data...)
	m.modes[path] = mode
	return nil
}

// Read retrieves file contents.
func (m *MockStore) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("read", path); err != nil {
		return nil, err
	}

	if data, ok := m.files[filepath.Clean(path)]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, fmt.Errorf("read file: %w", os.ErrNotExist)
}

// Delete removes a file.
func (m *MockStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("delete", path); err != nil {
		return err
	}

	delete(m.files, filepath.Clean(path))
	return nil
}

// Exists checks if a file or directory exists.
func (m *MockStore) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

// Stat returns file information.
func (m *MockStore) Stat(path string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("stat", path); err != nil {
		return FileInfo{}, err
	}

	clean := filepath.Clean(path)
	if m.dirs[clean] {
		return FileInfo{Path: path, Mode: os.ModeDir | 0755, IsDir: true, ModTime: time.Now()}, nil
	}

	data, ok := m.files[clean]
	if !ok {
		return FileInfo{}, fmt.Errorf("stat file: %w", os.ErrNotExist)
	}

	mode := m.modes[clean]
	if mode == 0 {
		mode = 0644
	}
	return FileInfo{Path: path, Size: int64(len(data)), Mode: mode, ModTime: time.Now()}, nil
}

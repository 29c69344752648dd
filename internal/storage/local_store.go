package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheMichaelB/togglecrypt/internal/events"
)

// LocalStore implements BlobStore on the local file system.
type LocalStore struct {
	logger      *events.Logger
	maxFileSize int64
}

// NewLocalStore creates a local file store.
func NewLocalStore(logger *events.Logger) *LocalStore {
	return &LocalStore{
		logger:      logger.WithField("component", "local_store"),
		maxFileSize: 1 << 30, // 1GB default
	}
}

// SetMaxFileSize sets the maximum file size limit.
func (s *LocalStore) SetMaxFileSize(size int64) {
	s.maxFileSize = size
}

// Read retrieves file contents.
func (s *LocalStore) Read(path string) ([]byte, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if stat.Size() > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, stat.Size(), s.maxFileSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// Write saves data to a file atomically.
func (s *LocalStore) Write(path string, data []byte, mode os.FileMode) error {
	if err := validatePath(path); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"path": path,
		"size": len(data),
		"mode": mode,
	}).Debug("Writing file")

	if int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, len(data), s.maxFileSize)
	}

	// Ensure parent directory exists
	parentDir := filepath.Dir(path)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	// Temp file lives next to the target so the rename stays on one file system.
	tempFile, err := os.CreateTemp(parentDir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync file: %w", err)
	}

	if err := tempFile.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}

// Delete removes a file.
func (s *LocalStore) Delete(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	s.logger.WithField("path", path).Debug("Deleting file")

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("delete file: %w", err)
	}

	return nil
}

// Exists checks if a directory entry occupies path.
func (s *LocalStore) Exists(path string) (bool, error) {
	if err := validatePath(path); err != nil {
		return false, err
	}

	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Stat returns file information.
func (s *LocalStore) Stat(path string) (FileInfo, error) {
	if err := validatePath(path); err != nil {
		return FileInfo{}, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat file: %w", err)
	}

	return FileInfo{
		Path:    path,
		Size:    stat.Size(),
		Mode:    stat.Mode(),
		ModTime: stat.ModTime(),
		IsDir:   stat.IsDir(),
	}, nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: contains null byte", ErrInvalidPath)
	}
	return nil
}

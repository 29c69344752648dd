package storage

import (
	"errors"
	"os"
	"time"
)

// BlobStore manages local file operations.
type BlobStore interface {
	// Read retrieves file contents.
	Read(path string) ([]byte, error)

	// Write saves data atomically, creating parent directories. Readers
	// never observe a partially written file at path.
	Write(path string, data []byte, mode os.FileMode) error

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(path string) error

	// Exists reports whether any directory entry (file, directory or
	// symlink, even a dangling one) occupies path.
	Exists(path string) (bool, error)

	// Stat returns file information, following symlinks.
	Stat(path string) (FileInfo, error)
}

// FileInfo contains file metadata.
type FileInfo struct {
	Path    string
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}

// IsRegular reports whether the path is a regular file.
func (fi FileInfo) IsRegular() bool {
	return fi.Mode.IsRegular()
}

// Errors
var (
	ErrFileTooLarge = errors.New("file too large")
	ErrInvalidPath  = errors.New("invalid path")
)

package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeIO          = "IO_ERROR"
	ErrCodeFormat      = "FORMAT_ERROR"
	ErrCodeAuth        = "AUTHENTICATION_FAILURE"
	ErrCodeCredentials = "CREDENTIAL_CONFIG_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// Sentinel errors
var (
	ErrNotFound         = errors.New("file not found")
	ErrIO               = errors.New("i/o error")
	ErrFormat           = errors.New("invalid container format")
	ErrAuthentication   = errors.New("wrong password or corrupted file")
	ErrCredentialConfig = errors.New("credential configuration error")
	ErrInternal         = errors.New("internal error")
)

// Code maps an error onto one of the error codes.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrFormat):
		return ErrCodeFormat
	case errors.Is(err, ErrAuthentication):
		return ErrCodeAuth
	case errors.Is(err, ErrCredentialConfig):
		return ErrCodeCredentials
	case errors.Is(err, ErrIO):
		return ErrCodeIO
	default:
		return ErrCodeInternal
	}
}

// FileError describes a failed operation on a single input path.
type FileError struct {
	Op   Operation
	Path string
	Kind error // one of the sentinel errors above
	Err  error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewFileError builds a FileError of the given kind.
func NewFileError(op Operation, path string, kind, err error) *FileError {
	return &FileError{Op: op, Path: path, Kind: kind, Err: err}
}

// CredentialError reports a misconfigured non-interactive credential source.
type CredentialError struct {
	Variable string
	Reason   string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials: %s: %s", e.Variable, e.Reason)
}

func (e *CredentialError) Unwrap() error {
	return ErrCredentialConfig
}

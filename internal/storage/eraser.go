package storage

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

// Cleanup methods.
const (
	MethodShred  = "shred"
	MethodRemove = "remove"
)

// Eraser destroys a source artifact after a successful transition.
type Eraser interface {
	Erase(ctx context.Context, path string) models.Cleanup
}

// RemoveEraser deletes through the store without overwriting.
type RemoveEraser struct {
	store BlobStore
}

// NewRemoveEraser creates an eraser that only unlinks.
func NewRemoveEraser(store BlobStore) *RemoveEraser {
	return &RemoveEraser{store: store}
}

// Erase implements Eraser.
func (e *RemoveEraser) Erase(ctx context.Context, path string) models.Cleanup {
	return models.Cleanup{
		Attempted: true,
		Method:    MethodRemove,
		Err:       e.store.Delete(path),
	}
}

// ShredEraser runs an external overwrite-and-unlink utility when it is
// on PATH and falls back to a plain delete otherwise. Secure deletion is
// best effort and not part of the cryptographic guarantee.
type ShredEraser struct {
	command  string
	args     []string
	fallback *RemoveEraser
	logger   *events.Logger
}

// NewShredEraser creates an eraser running "command args... path". An
// empty command disables shredding.
func NewShredEraser(command string, args []string, store BlobStore, logger *events.Logger) *ShredEraser {
	return &ShredEraser{
		command:  command,
		args:     args,
		fallback: NewRemoveEraser(store),
		logger:   logger.WithField("component", "eraser"),
	}
}

// Available reports whether the shred utility can be found.
func (e *ShredEraser) Available() bool {
	if e.command == "" {
		return false
	}
	_, err := exec.LookPath(e.command)
	return err == nil
}

// Erase implements Eraser.
func (e *ShredEraser) Erase(ctx context.Context, path string) models.Cleanup {
	if err := e.shred(ctx, path); err == nil {
		return models.Cleanup{Attempted: true, Method: MethodShred}
	} else if !errors.Is(err, exec.ErrNotFound) {
		e.logger.WithError(err).WithField("path", path).Warn("Shred failed, falling back to delete")
	}

	return e.fallback.Erase(ctx, path)
}

func (e *ShredEraser) shred(ctx context.Context, path string) error {
	if e.command == "" {
		return exec.ErrNotFound
	}

	bin, err := exec.LookPath(e.command)
	if err != nil {
		return exec.ErrNotFound
	}

	args := append(append([]string(nil), e.args...), path)
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		return &ShredError{Command: e.command, Output: string(out), Err: err}
	}

	// The utility may exit 0 without unlinking (e.g. missing -u).
	if _, err := os.Lstat(path); err == nil {
		return &ShredError{Command: e.command, Err: errors.New("file still present")}
	}

	return nil
}

// ShredError reports a failed shred invocation.
type ShredError struct {
	Command string
	Output  string
	Err     error
}

func (e *ShredError) Error() string {
	if e.Output != "" {
		return e.Command + ": " + e.Err.Error() + ": " + e.Output
	}
	return e.Command + ": " + e.Err.Error()
}

func (e *ShredError) Unwrap() error {
	return e.Err
}

// Package toggle moves files between their plaintext and container
// states. Each input path is classified by content and then encrypted or
// decrypted; a failure on one path never affects the others.
package toggle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awnumar/memguard"

	"github.com/TheMichaelB/togglecrypt/internal/crypto"
	"github.com/TheMichaelB/togglecrypt/internal/envelope"
	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/journal"
	"github.com/TheMichaelB/togglecrypt/internal/models"
	"github.com/TheMichaelB/togglecrypt/internal/storage"
)

var errNotRegular = errors.New("not a regular file")

// Options tune the controller.
type Options struct {
	// ErrorPause is slept after each failed file. Zero disables it.
	ErrorPause time.Duration

	// Sleep replaces time.Sleep in tests.
	Sleep func(time.Duration)

	Journal journal.Store
	RunID   string

	// OnEvent is called synchronously for each file.
	OnEvent func(Event)
}

// EventType defines per-file event types.
type EventType string

const (
	EventFileStarted  EventType = "file_started"
	EventFileComplete EventType = "file_complete"
	EventFileError    EventType = "file_error"
)

// Event reports controller progress.
type Event struct {
	Type   EventType
	Path   string
	Index  int
	Total  int
	Result *models.Result
}

// Service runs file transitions.
type Service struct {
	provider crypto.Provider
	store    storage.BlobStore
	eraser   storage.Eraser
	logger   *events.Logger
	opts     Options
}

// NewService creates a toggle service.
func NewService(
	provider crypto.Provider,
	store storage.BlobStore,
	eraser storage.Eraser,
	logger *events.Logger,
	opts Options,
) *Service {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Journal == nil {
		opts.Journal = journal.NopStore{}
	}

	return &Service{
		provider: provider,
		store:    store,
		eraser:   eraser,
		logger:   logger.WithField("service", "toggle"),
		opts:     opts,
	}
}

// Process handles paths in order and returns one result per processed
// path. Cancellation is checked between files; a cancelled run returns
// the results gathered so far.
func (s *Service) Process(ctx context.Context, paths []string, password []byte) []models.Result {
	results := make([]models.Result, 0, len(paths))

	runID := s.opts.RunID
	if runID == "" {
		runID = events.GetRunID(ctx)
	}
	events.FromContext(ctx).WithField("files", len(paths)).Debug("Processing batch")

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"processed": i,
				"remaining": len(paths) - i,
			}).Warn("Processing cancelled")
			break
		}

		s.emit(Event{Type: EventFileStarted, Path: path, Index: i, Total: len(paths)})

		result := s.ProcessFile(ctx, path, password)
		results = append(results, result)
		s.record(runID, result)

		if result.OK() {
			s.emit(Event{Type: EventFileComplete, Path: path, Index: i, Total: len(paths), Result: &result})
			continue
		}

		s.emit(Event{Type: EventFileError, Path: path, Index: i, Total: len(paths), Result: &result})
		if s.opts.ErrorPause > 0 {
			s.opts.Sleep(s.opts.ErrorPause)
		}
	}

	return results
}

// ProcessFile classifies path and runs the matching transition. A panic
// while handling the file is converted into a failed result.
func (s *Service) ProcessFile(ctx context.Context, path string, password []byte) (result models.Result) {
	start := time.Now()
	logger := s.logger.WithField("path", path)

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", fmt.Sprint(r)).Error("Unexpected failure")
			result = models.Result{
				Op:     models.OpNone,
				Source: path,
				Err:    models.NewFileError(models.OpNone, path, models.ErrInternal, fmt.Errorf("panic: %v", r)),
			}
		}
		result.Duration = time.Since(start)
	}()

	state := envelope.ClassifyFile(s.store, path)
	logger.WithField("state", state.String()).Debug("Classified file")

	if state == envelope.Container {
		return s.Decrypt(ctx, path, password)
	}
	return s.Encrypt(ctx, path, password)
}

// Encrypt seals a plaintext file into a container and then erases the
// plaintext. The plaintext is untouched unless the container was written.
func (s *Service) Encrypt(ctx context.Context, path string, password []byte) models.Result {
	result := models.Result{Op: models.OpEncrypt, Source: path}
	fail := func(kind, err error) models.Result {
		result.Err = models.NewFileError(models.OpEncrypt, path, kind, err)
		s.logger.WithError(result.Err).Info("Encryption failed")
		return result
	}

	info, kind, err := s.statRegular(path)
	if err != nil {
		return fail(kind, err)
	}

	data, err := s.store.Read(path)
	if err != nil {
		return fail(models.ErrIO, err)
	}
	defer memguard.WipeBytes(data)

	absPath, err := resolvePath(path)
	if err != nil {
		return fail(models.ErrIO, err)
	}

	sealed, err := s.provider.Encrypt(password, data)
	if err != nil {
		return fail(models.ErrInternal, err)
	}

	encoded, err := envelope.Encode(envelope.New(sealed, absPath))
	if err != nil {
		return fail(models.ErrInternal, err)
	}

	target := ContainerPath(path, s.exists)
	if err := s.store.Write(target, encoded, info.Mode.Perm()); err != nil {
		return fail(models.ErrIO, err)
	}

	result.Target = target
	result.Size = int64(len(data))
	result.Cleanup = s.eraser.Erase(ctx, path)
	s.logCleanup(path, result.Cleanup)

	s.logger.WithFields(map[string]interface{}{
		"source": path,
		"target": target,
		"size":   result.Size,
	}).Info("File encrypted")

	return result
}

// Decrypt opens a container, restores the plaintext at its recorded
// location and then deletes the container. The container is untouched
// unless the plaintext was written.
func (s *Service) Decrypt(ctx context.Context, path string, password []byte) models.Result {
	result := models.Result{Op: models.OpDecrypt, Source: path}
	fail := func(kind, err error) models.Result {
		result.Err = models.NewFileError(models.OpDecrypt, path, kind, err)
		s.logger.WithError(result.Err).Info("Decryption failed")
		return result
	}

	info, kind, err := s.statRegular(path)
	if err != nil {
		return fail(kind, err)
	}

	data, err := s.store.Read(path)
	if err != nil {
		return fail(models.ErrIO, err)
	}

	env, err := envelope.Decode(data)
	if err != nil {
		return fail(models.ErrFormat, err)
	}

	original, err := filepath.Abs(env.OriginalPath)
	if err != nil {
		return fail(models.ErrIO, err)
	}

	plaintext, err := s.provider.Decrypt(password, env.Sealed())
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return fail(models.ErrAuthentication, nil)
		}
		return fail(models.ErrInternal, err)
	}
	defer memguard.WipeBytes(plaintext)

	target := RestorePath(original, s.exists)
	if err := s.store.Write(target, plaintext, info.Mode.Perm()); err != nil {
		return fail(models.ErrIO, err)
	}

	result.Target = target
	result.Size = int64(len(plaintext))
	result.Cleanup = models.Cleanup{
		Attempted: true,
		Method:    storage.MethodRemove,
		Err:       s.store.Delete(path),
	}
	s.logCleanup(path, result.Cleanup)

	s.logger.WithFields(map[string]interface{}{
		"source": path,
		"target": target,
		"size":   result.Size,
	}).Info("File decrypted")

	return result
}

// statRegular requires path to name a regular file, following symlinks.
// The returned kind classifies a failure.
func (s *Service) statRegular(path string) (storage.FileInfo, error, error) {
	info, err := s.store.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return info, models.ErrNotFound, err
		}
		return info, models.ErrIO, err
	}

	if !info.IsRegular() {
		return info, models.ErrNotFound, errNotRegular
	}

	return info, nil, nil
}

// exists treats probe errors as occupied so a name is never clobbered.
func (s *Service) exists(path string) bool {
	ok, err := s.store.Exists(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Debug("Existence probe failed")
		return true
	}
	return ok
}

func (s *Service) logCleanup(path string, cleanup models.Cleanup) {
	if cleanup.Err == nil {
		return
	}
	s.logger.WithError(cleanup.Err).WithFields(map[string]interface{}{
		"path":   path,
		"method": cleanup.Method,
	}).Warn("Source cleanup failed")
}

// resolvePath returns the absolute path with symlinks resolved. When
// resolution fails the plain absolute path is used.
func resolvePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved, nil
	}
	return absPath, nil
}

func (s *Service) record(runID string, result models.Result) {
	if err := s.opts.Journal.Record(journal.NewEntry(runID, result)); err != nil {
		s.logger.WithError(err).Warn("Failed to record journal entry")
	}
}

func (s *Service) emit(e Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(e)
	}
}

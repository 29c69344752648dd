// Package journal keeps a local history of file transitions.
package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/togglecrypt/internal/config"
	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

// Store persists journal entries.
type Store interface {
	// Record appends an entry.
	Record(entry Entry) error

	// Recent returns up to n entries, newest first.
	Recent(n int) ([]Entry, error)

	// Close releases resources.
	Close() error
}

// Entry status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one processed file. Passwords and key material are never
// recorded.
type Entry struct {
	ID      string    `json:"id"`
	RunID   string    `json:"run_id"`
	Time    time.Time `json:"time"`
	Op      string    `json:"op"`
	Source  string    `json:"source"`
	Target  string    `json:"target,omitempty"`
	Size    int64     `json:"size"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
	Cleanup string    `json:"cleanup,omitempty"`
}

// Errors
var (
	ErrJournalCorrupt = errors.New("journal file is corrupt")
)

// CurrentSchemaVersion for migrations.
const CurrentSchemaVersion = 1

// NewEntry converts a file result into a journal entry.
func NewEntry(runID string, result models.Result) Entry {
	entry := Entry{
		ID:     uuid.NewString(),
		RunID:  runID,
		Time:   time.Now().UTC(),
		Op:     string(result.Op),
		Source: result.Source,
		Target: result.Target,
		Size:   result.Size,
		Status: StatusOK,
	}

	if result.Err != nil {
		entry.Status = StatusFailed
		entry.Error = result.Err.Error()
	}

	if result.Cleanup.Attempted {
		entry.Cleanup = result.Cleanup.Method
		if result.Cleanup.Err != nil {
			entry.Cleanup += " failed: " + result.Cleanup.Err.Error()
		}
	}

	return entry
}

// Open creates the store selected by cfg.
func Open(cfg config.JournalConfig, logger *events.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return NopStore{}, nil
	case "json":
		return NewJSONStore(cfg.Path+".json", logger)
	case "sqlite":
		return NewSQLiteStore(cfg.Path+".db", logger)
	default:
		return nil, fmt.Errorf("unknown journal backend: %s", cfg.Backend)
	}
}

// NopStore discards entries.
type NopStore struct{}

// Record implements Store.
func (NopStore) Record(Entry) error { return nil }

// Recent implements Store.
func (NopStore) Recent(int) ([]Entry, error) { return nil, nil }

// Close implements Store.
func (NopStore) Close() error { return nil }

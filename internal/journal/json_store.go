package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheMichaelB/togglecrypt/internal/events"
)

// DefaultMaxEntries bounds the JSON journal; older entries are dropped.
const DefaultMaxEntries = 1000

// document is the on-disk layout of the JSON journal.
type document struct {
	SchemaVersion int       `json:"schema_version"`
	UpdatedAt     time.Time `json:"updated_at"`
	Entries       []Entry   `json:"entries"`
	Checksum      string    `json:"checksum,omitempty"`
}

// JSONStore implements a single-file journal.
type JSONStore struct {
	path       string
	maxEntries int
	logger     *events.Logger

	mu sync.Mutex
}

// NewJSONStore creates a JSON journal at path.
func NewJSONStore(path string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	return &JSONStore{
		path:       path,
		maxEntries: DefaultMaxEntries,
		logger:     logger.WithField("component", "json_journal"),
	}, nil
}

// SetMaxEntries changes the retention limit.
func (s *JSONStore) SetMaxEntries(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxEntries = n
}

// Record appends an entry and rewrites the file atomically.
func (s *JSONStore) Record(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	doc.Entries = append(doc.Entries, entry)
	if s.maxEntries > 0 && len(doc.Entries) > s.maxEntries {
		doc.Entries = doc.Entries[len(doc.Entries)-s.maxEntries:]
	}

	s.logger.WithFields(map[string]interface{}{
		"op":      entry.Op,
		"status":  entry.Status,
		"entries": len(doc.Entries),
	}).Debug("Recording journal entry")

	return s.save(doc)
}

// Recent returns up to n entries, newest first.
func (s *JSONStore) Recent(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	if n <= 0 || n > len(doc.Entries) {
		n = len(doc.Entries)
	}

	recent := make([]Entry, 0, n)
	for i := len(doc.Entries) - 1; i >= len(doc.Entries)-n; i-- {
		recent = append(recent, doc.Entries[i])
	}
	return recent, nil
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &document{SchemaVersion: CurrentSchemaVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		// Try backup file
		if backup, backupErr := os.ReadFile(s.backupPath()); backupErr == nil {
			if doc, backupErr := decodeDocument(backup); backupErr == nil {
				s.logger.Warn("Loaded journal from backup due to corruption")
				return doc, nil
			}
		}
		return nil, err
	}

	if doc.SchemaVersion != CurrentSchemaVersion {
		s.logger.WithField("version", doc.SchemaVersion).Warn("Journal schema version mismatch")
	}

	return doc, nil
}

func decodeDocument(data []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrJournalCorrupt
	}

	if doc.Checksum != "" {
		expected := doc.Checksum
		calculated, err := checksum(&doc)
		if err != nil || calculated != expected {
			return nil, ErrJournalCorrupt
		}
		doc.Checksum = expected
	}

	return &doc, nil
}

// checksum hashes the document with its checksum field cleared.
func checksum(doc *document) (string, error) {
	verification := *doc
	verification.Checksum = ""

	data, err := json.Marshal(verification)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func (s *JSONStore) save(doc *document) error {
	doc.SchemaVersion = CurrentSchemaVersion
	doc.UpdatedAt = time.Now().UTC()

	sum, err := checksum(doc)
	if err != nil {
		return fmt.Errorf("marshal journal for checksum: %w", err)
	}
	doc.Checksum = sum

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	// Keep the previous version as a backup
	if current, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.backupPath(), current, 0600); err != nil {
			s.logger.WithError(err).Warn("Failed to create backup")
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename journal file: %w", err)
	}

	return nil
}

func (s *JSONStore) backupPath() string {
	return s.path + ".backup"
}

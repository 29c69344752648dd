package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/togglecrypt/internal/config"
)

// LogEntry represents a captured log entry for testing
type LogEntry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"msg"`
	Time    time.Time              `json:"time"`
	Fields  map[string]interface{} `json:"-"`
}

// TestHelpers provides common test helper functions.
type TestHelpers struct {
	t       *testing.T
	tempDir string
}

// NewTestHelpers creates test helpers.
func NewTestHelpers(t *testing.T) *TestHelpers {
	return &TestHelpers{
		t:       t,
		tempDir: t.TempDir(),
	}
}

// TempDir returns the temporary directory for this test.
func (h *TestHelpers) TempDir() string {
	return h.tempDir
}

// Path joins name onto the temporary directory.
func (h *TestHelpers) Path(name string) string {
	return filepath.Join(h.tempDir, name)
}

// CreateTempFile creates a temporary file with content.
func (h *TestHelpers) CreateTempFile(name, content string) string {
	return h.CreateTempBinaryFile(name, []byte(content))
}

// CreateTempBinaryFile creates a temporary binary file.
func (h *TestHelpers) CreateTempBinaryFile(name string, content []byte) string {
	path := h.Path(name)

	err := os.MkdirAll(filepath.Dir(path), 0755)
	require.NoError(h.t, err)

	err = os.WriteFile(path, content, 0644)
	require.NoError(h.t, err)

	return path
}

// ReadFile returns the content of path.
func (h *TestHelpers) ReadFile(path string) []byte {
	data, err := os.ReadFile(path)
	require.NoError(h.t, err)
	return data
}

// AssertFileContent checks file content matches expected.
func (h *TestHelpers) AssertFileContent(path, expectedContent string) {
	assert.Equal(h.t, expectedContent, string(h.ReadFile(path)))
}

// AssertFileNotExists checks that a file does not exist.
func (h *TestHelpers) AssertFileNotExists(path string) {
	_, err := os.Lstat(path)
	assert.True(h.t, os.IsNotExist(err), "File should not exist: %s", path)
}

// DirEntries returns the sorted names in the temporary directory.
func (h *TestHelpers) DirEntries() []string {
	entries, err := os.ReadDir(h.tempDir)
	require.NoError(h.t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// TestContext creates a test context with reasonable timeout.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// TestConfigWithDir creates a test configuration writing under dataDir.
func TestConfigWithDir(dataDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Toggle.ErrorPause = 0
	cfg.Storage.ShredCommand = ""
	cfg.Journal.Path = filepath.Join(dataDir, "journal")
	cfg.Log = config.LogConfig{
		Level:  "debug",
		Format: "json",
		Color:  false,
	}
	return cfg
}

// LogOutput captures JSON log output for testing.
type LogOutput struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// NewLogOutput creates a new log output capturer.
func NewLogOutput() *LogOutput {
	return &LogOutput{}
}

// Write implements io.Writer to capture log output.
func (lo *LogOutput) Write(p []byte) (n int, err error) {
	var entry LogEntry
	if err := json.Unmarshal(p, &entry); err == nil {
		_ = json.Unmarshal(p, &entry.Fields)
		lo.mu.Lock()
		lo.entries = append(lo.entries, entry)
		lo.mu.Unlock()
	}
	return len(p), nil
}

// Entries returns captured log entries.
func (lo *LogOutput) Entries() []LogEntry {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	entries := make([]LogEntry, len(lo.entries))
	copy(entries, lo.entries)
	return entries
}

// HasMessage checks if any log entry at level contains message.
func (lo *LogOutput) HasMessage(level, message string) bool {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	for _, entry := range lo.entries {
		if entry.Level == level && strings.Contains(entry.Message, message) {
			return true
		}
	}
	return false
}

// Contains reports whether any captured line mentions s in a message or
// field value.
func (lo *LogOutput) Contains(s string) bool {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	for _, entry := range lo.entries {
		for _, v := range entry.Fields {
			if str, ok := v.(string); ok && strings.Contains(str, s) {
				return true
			}
		}
	}
	return false
}

package journal_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/togglecrypt/internal/config"
	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/journal"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

func testLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

func TestJSONStore(t *testing.T) {
	store, err := journal.NewJSONStore(filepath.Join(t.TempDir(), "sub", "journal.json"), testLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"), testLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func testStoreOperations(t *testing.T, store journal.Store) {
	t.Run("empty", func(t *testing.T) {
		entries, err := store.Recent(10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("record and read back newest first", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			entry := journal.Entry{
				ID:     fmt.Sprintf("entry-%d", i),
				RunID:  "run-1",
				Time:   time.Now().UTC().Truncate(time.Second),
				Op:     string(models.OpEncrypt),
				Source: fmt.Sprintf("/tmp/file%d.txt", i),
				Target: fmt.Sprintf("/tmp/file%d.encJson", i),
				Size:   int64(i * 10),
				Status: journal.StatusOK,
			}
			require.NoError(t, store.Record(entry))
		}

		entries, err := store.Recent(3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "entry-4", entries[0].ID)
		assert.Equal(t, "entry-2", entries[2].ID)
		assert.Equal(t, "/tmp/file4.encJson", entries[0].Target)
		assert.Equal(t, int64(40), entries[0].Size)
		assert.Equal(t, "run-1", entries[0].RunID)
	})

	t.Run("failure entries keep the error", func(t *testing.T) {
		result := models.Result{
			Op:     models.OpDecrypt,
			Source: "/tmp/bad.encJson",
			Err:    models.NewFileError(models.OpDecrypt, "/tmp/bad.encJson", models.ErrAuthentication, nil),
		}
		require.NoError(t, store.Record(journal.NewEntry("run-2", result)))

		entries, err := store.Recent(1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, journal.StatusFailed, entries[0].Status)
		assert.Contains(t, entries[0].Error, "wrong password or corrupted file")
		assert.Empty(t, entries[0].Target)
	})

	t.Run("all entries", func(t *testing.T) {
		entries, err := store.Recent(0)
		require.NoError(t, err)
		assert.Len(t, entries, 6)
	})
}

func TestNewEntry(t *testing.T) {
	result := models.Result{
		Op:     models.OpEncrypt,
		Source: "/data/a.txt",
		Target: "/data/a.encJson",
		Size:   12,
		Cleanup: models.Cleanup{
			Attempted: true,
			Method:    "shred",
			Err:       errors.New("permission denied"),
		},
	}

	entry := journal.NewEntry("run", result)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "run", entry.RunID)
	assert.Equal(t, "encrypt", entry.Op)
	assert.Equal(t, journal.StatusOK, entry.Status)
	assert.Empty(t, entry.Error)
	assert.Equal(t, "shred failed: permission denied", entry.Cleanup)
	assert.WithinDuration(t, time.Now(), entry.Time, time.Minute)
}

func TestJSONStoreRetention(t *testing.T) {
	store, err := journal.NewJSONStore(filepath.Join(t.TempDir(), "journal.json"), testLogger())
	require.NoError(t, err)
	store.SetMaxEntries(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(journal.Entry{ID: fmt.Sprintf("%d", i), Status: journal.StatusOK}))
	}

	entries, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "4", entries[0].ID)
	assert.Equal(t, "2", entries[2].ID)
}

func TestJSONStoreCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	store, err := journal.NewJSONStore(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Record(journal.Entry{ID: "first", Status: journal.StatusOK}))
	require.NoError(t, store.Record(journal.Entry{ID: "second", Status: journal.StatusOK}))

	t.Run("falls back to backup", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		entries, err := store.Recent(0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "first", entries[0].ID)
	})

	t.Run("checksum mismatch without backup", func(t *testing.T) {
		data, err := os.ReadFile(path + ".backup")
		require.NoError(t, err)
		require.NoError(t, os.Remove(path+".backup"))

		tampered := bytes.Replace(data, []byte(`"first"`), []byte(`"forged"`), 1)
		require.NoError(t, os.WriteFile(path, tampered, 0600))

		_, err = store.Recent(0)
		assert.ErrorIs(t, err, journal.ErrJournalCorrupt)
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		file    string
	}{
		{"none", ""},
		{"json", "journal.json"},
		{"sqlite", "journal.db"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.JournalConfig{Backend: tt.backend, Path: filepath.Join(dir, "journal")}
			store, err := journal.Open(cfg, testLogger())
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Record(journal.Entry{ID: "x-" + tt.backend, Status: journal.StatusOK}))
			if tt.file != "" {
				assert.FileExists(t, filepath.Join(dir, tt.file))
			}
		})
	}

	_, err := journal.Open(config.JournalConfig{Backend: "redis"}, testLogger())
	assert.Error(t, err)
}

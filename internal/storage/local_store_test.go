package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/storage"
)

func newTestStore(t *testing.T) (*storage.LocalStore, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	return storage.NewLocalStore(logger), &buf
}

func TestLocalStoreWriteRead(t *testing.T) {
	store, _ := newTestStore(t)
	path := filepath.Join(t.TempDir(), "nested", "dir", "file.txt")

	err := store.Write(path, []byte("content"), 0640)
	require.NoError(t, err)

	data, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	info, err := store.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsRegular())
	assert.Equal(t, int64(7), info.Size)
	assert.Equal(t, os.FileMode(0640), info.Mode.Perm())
}

func TestLocalStoreWriteLeavesNoTempFiles(t *testing.T) {
	store, _ := newTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	require.NoError(t, store.Write(path, []byte("one"), 0644))
	require.NoError(t, store.Write(path, []byte("two"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file.txt", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocalStoreWriteFailureKeepsTargetAbsent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	store, _ := newTestStore(t)
	dir := t.TempDir()
	readOnly := filepath.Join(dir, "ro")
	require.NoError(t, os.Mkdir(readOnly, 0555))
	t.Cleanup(func() { _ = os.Chmod(readOnly, 0755) })

	path := filepath.Join(readOnly, "file.txt")
	err := store.Write(path, []byte("data"), 0644)
	require.Error(t, err)

	_, statErr := os.Lstat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStoreSizeLimit(t *testing.T) {
	store, _ := newTestStore(t)
	store.SetMaxFileSize(1024)
	dir := t.TempDir()

	err := store.Write(filepath.Join(dir, "large.txt"), []byte(strings.Repeat("b", 2048)), 0644)
	assert.ErrorIs(t, err, storage.ErrFileTooLarge)

	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("c", 2048)), 0644))

	_, err = store.Read(big)
	assert.ErrorIs(t, err, storage.ErrFileTooLarge)
}

func TestLocalStoreReadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Read(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocalStoreExists(t *testing.T) {
	store, _ := newTestStore(t)
	dir := t.TempDir()

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	dangling := filepath.Join(dir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), dangling))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"file", file, true},
		{"directory", dir, true},
		{"dangling symlink", dangling, true},
		{"missing", filepath.Join(dir, "missing"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, err := store.Exists(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestLocalStoreDelete(t *testing.T) {
	store, buf := newTestStore(t)
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, store.Delete(path))
	assert.NoFileExists(t, path)

	// Already deleted
	assert.NoError(t, store.Delete(path))
	assert.Contains(t, buf.String(), `"component":"local_store"`)
}

func TestLocalStoreInvalidPaths(t *testing.T) {
	store, _ := newTestStore(t)

	for _, path := range []string{"", "bad\x00name"} {
		_, err := store.Read(path)
		assert.ErrorIs(t, err, storage.ErrInvalidPath)

		err = store.Write(path, nil, 0644)
		assert.ErrorIs(t, err, storage.ErrInvalidPath)

		_, err = store.Exists(path)
		assert.ErrorIs(t, err, storage.ErrInvalidPath)
	}
}

func TestMockStore(t *testing.T) {
	store := storage.NewMockStore()

	require.NoError(t, store.Write("/a/b.txt", []byte("x"), 0600))
	store.AddDir("/a")

	exists, _ := store.Exists("/a/b.txt")
	assert.True(t, exists)
	exists, _ = store.Exists("/a")
	assert.True(t, exists)

	info, err := store.Stat("/a")
	require.NoError(t, err)
	assert.False(t, info.IsRegular())

	store.Fail("delete", "/a/b.txt", os.ErrPermission)
	assert.ErrorIs(t, store.Delete("/a/b.txt"), os.ErrPermission)
	assert.Equal(t, []string{"/a/b.txt"}, store.Files())

	_, err = store.Read("/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

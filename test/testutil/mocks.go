package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/TheMichaelB/togglecrypt/internal/journal"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

// MockEraser is a testify mock for storage.Eraser.
type MockEraser struct {
	mock.Mock
}

// Erase implements storage.Eraser.
func (m *MockEraser) Erase(ctx context.Context, path string) models.Cleanup {
	args := m.Called(ctx, path)
	return args.Get(0).(models.Cleanup)
}

// MockJournal is a testify mock for journal.Store.
type MockJournal struct {
	mock.Mock
}

// Record implements journal.Store.
func (m *MockJournal) Record(entry journal.Entry) error {
	args := m.Called(entry)
	return args.Error(0)
}

// Recent implements journal.Store.
func (m *MockJournal) Recent(n int) ([]journal.Entry, error) {
	args := m.Called(n)
	entries, _ := args.Get(0).([]journal.Entry)
	return entries, args.Error(1)
}

// Close implements journal.Store.
func (m *MockJournal) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPrompter is a testify mock for creds.Prompter.
type MockPrompter struct {
	mock.Mock
}

// ReadPassword implements creds.Prompter.
func (m *MockPrompter) ReadPassword(prompt string) ([]byte, error) {
	args := m.Called(prompt)
	password, _ := args.Get(0).([]byte)
	return password, args.Error(1)
}

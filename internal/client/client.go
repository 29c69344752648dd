// Package client assembles the toggle stack from configuration.
package client

import (
	"context"
	"time"

	"github.com/TheMichaelB/togglecrypt/internal/config"
	"github.com/TheMichaelB/togglecrypt/internal/crypto"
	"github.com/TheMichaelB/togglecrypt/internal/events"
	"github.com/TheMichaelB/togglecrypt/internal/journal"
	"github.com/TheMichaelB/togglecrypt/internal/models"
	"github.com/TheMichaelB/togglecrypt/internal/services/toggle"
	"github.com/TheMichaelB/togglecrypt/internal/storage"
)

// Client provides the high-level API for togglecrypt operations.
type Client struct {
	Toggle  *toggle.Service
	Journal journal.Store

	logger *events.Logger
}

// Options are per-run settings that do not come from the config file.
type Options struct {
	ErrorPause time.Duration
	RunID      string
	OnEvent    func(toggle.Event)
}

// New creates a client. A journal that cannot be opened is replaced by a
// no-op journal; history is a convenience and never blocks a run.
func New(cfg *config.Config, logger *events.Logger, opts Options) (*Client, error) {
	blobStore := storage.NewLocalStore(logger)
	blobStore.SetMaxFileSize(cfg.Storage.MaxFileSize)

	eraser := storage.NewShredEraser(cfg.Storage.ShredCommand, cfg.Storage.ShredArgs, blobStore, logger)
	if !eraser.Available() {
		logger.WithField("command", cfg.Storage.ShredCommand).
			Info("Shred unavailable, sources will be removed without overwrite")
	}

	journalStore, err := journal.Open(cfg.Journal, logger)
	if err != nil {
		logger.WithError(err).Warn("Journal unavailable")
		journalStore = journal.NopStore{}
	}

	toggleService := toggle.NewService(
		crypto.NewProvider(),
		blobStore,
		eraser,
		logger,
		toggle.Options{
			ErrorPause: opts.ErrorPause,
			Journal:    journalStore,
			RunID:      opts.RunID,
			OnEvent:    opts.OnEvent,
		},
	)

	return &Client{
		Toggle:  toggleService,
		Journal: journalStore,
		logger:  logger.WithField("component", "client"),
	}, nil
}

// Process toggles every path with password.
func (c *Client) Process(ctx context.Context, paths []string, password []byte) []models.Result {
	results := c.Toggle.Process(ctx, paths, password)

	summary := models.Summarize(results)
	c.logger.WithFields(map[string]interface{}{
		"encrypted": summary.Encrypted,
		"decrypted": summary.Decrypted,
		"failed":    summary.Failed,
		"skipped":   len(paths) - len(results),
	}).Info("Run finished")

	return results
}

// History returns up to n journal entries, newest first.
func (c *Client) History(n int) ([]journal.Entry, error) {
	return c.Journal.Recent(n)
}

// JournalEnabled reports whether results are persisted.
func (c *Client) JournalEnabled() bool {
	_, nop := c.Journal.(journal.NopStore)
	return !nop
}

// Close releases the journal.
func (c *Client) Close() error {
	if err := c.Journal.Close(); err != nil {
		c.logger.WithError(err).Warn("Failed to close journal")
		return err
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Per-file transition behavior
	Toggle ToggleConfig `mapstructure:"toggle"`

	// File access and deletion
	Storage StorageConfig `mapstructure:"storage"`

	// Credential sourcing
	Credentials CredentialsConfig `mapstructure:"credentials"`

	// Operation journal
	Journal JournalConfig `mapstructure:"journal"`

	// Logging
	Log LogConfig `mapstructure:"log"`
}

// ToggleConfig controls the transition controller.
type ToggleConfig struct {
	WaitOnError bool          `mapstructure:"wait_on_error"` // pause after a reported error
	ErrorPause  time.Duration `mapstructure:"error_pause"`
}

// StorageConfig for local file access.
type StorageConfig struct {
	MaxFileSize  int64    `mapstructure:"max_file_size"` // whole file is held in memory
	ShredCommand string   `mapstructure:"shred_command"` // empty disables secure deletion
	ShredArgs    []string `mapstructure:"shred_args"`
}

// CredentialsConfig names the environment variables used in
// non-interactive mode.
type CredentialsConfig struct {
	NonInteractiveVar string `mapstructure:"non_interactive_var"`
	PasswordVar       string `mapstructure:"password_var"`
}

// JournalConfig selects the operation journal backend.
type JournalConfig struct {
	Backend string `mapstructure:"backend"` // none, json, sqlite
	Path    string `mapstructure:"path"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level     string `mapstructure:"level"`  // debug, info, warn, error
	Format    string `mapstructure:"format"` // text, json
	File      string `mapstructure:"file"`   // Log file path (empty = stderr)
	Color     bool   `mapstructure:"color"`
	Timestamp bool   `mapstructure:"timestamp"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".togglecrypt"
	if homeDir, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(homeDir, ".togglecrypt")
	}

	return &Config{
		Toggle: ToggleConfig{
			WaitOnError: true,
			ErrorPause:  time.Second,
		},
		Storage: StorageConfig{
			MaxFileSize:  1 << 30, // 1GB
			ShredCommand: "shred",
			ShredArgs:    []string{"-u", "--"},
		},
		Credentials: CredentialsConfig{
			NonInteractiveVar: "DEV_MODE_SCRIPTS",
			PasswordVar:       "DEV_ENCRYPTION_PASSWORD",
		},
		Journal: JournalConfig{
			Backend: "none",
			Path:    filepath.Join(dataDir, "journal"),
		},
		Log: LogConfig{
			Level:     "warn",
			Format:    "text",
			File:      "",
			Color:     true,
			Timestamp: true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Toggle.ErrorPause < 0 {
		return errors.New("toggle.error_pause must not be negative")
	}

	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage.max_file_size must be positive")
	}

	if c.Credentials.NonInteractiveVar == "" {
		return errors.New("credentials.non_interactive_var is required")
	}

	if c.Credentials.PasswordVar == "" {
		return errors.New("credentials.password_var is required")
	}

	validBackends := map[string]bool{"none": true, "json": true, "sqlite": true}
	if !validBackends[c.Journal.Backend] {
		return fmt.Errorf("invalid journal backend: %s", c.Journal.Backend)
	}

	if c.Journal.Backend != "none" && c.Journal.Path == "" {
		return errors.New("journal.path is required when the journal is enabled")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates directories the configuration writes into.
func (c *Config) EnsureDirectories() error {
	var dirs []string

	if c.Journal.Backend != "none" {
		dirs = append(dirs, filepath.Dir(c.Journal.Path))
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

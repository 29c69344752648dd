// Package creds resolves the password used for a run, either from an
// interactive prompt or from the environment.
package creds

import (
	"fmt"

	"github.com/TheMichaelB/togglecrypt/internal/config"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

// Mode selects where the password comes from.
type Mode int

const (
	Interactive Mode = iota
	NonInteractive
)

func (m Mode) String() string {
	if m == NonInteractive {
		return "non-interactive"
	}
	return "interactive"
}

// Prompter reads a secret without echo.
type Prompter interface {
	ReadPassword(prompt string) ([]byte, error)
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Source resolves credentials once per run.
type Source struct {
	cfg      config.CredentialsConfig
	lookup   LookupFunc
	prompter Prompter
}

// NewSource creates a credential source.
func NewSource(cfg config.CredentialsConfig, lookup LookupFunc, prompter Prompter) *Source {
	return &Source{
		cfg:      cfg,
		lookup:   lookup,
		prompter: prompter,
	}
}

// Mode reports the active mode. Only the exact value "1" opts in.
func (s *Source) Mode() Mode {
	if v, ok := s.lookup(s.cfg.NonInteractiveVar); ok && v == "1" {
		return NonInteractive
	}
	return Interactive
}

// Password returns the password for this run. The caller owns the slice
// and should wipe it when done.
func (s *Source) Password() ([]byte, error) {
	if s.Mode() == NonInteractive {
		v, ok := s.lookup(s.cfg.PasswordVar)
		if !ok || v == "" {
			return nil, &models.CredentialError{
				Variable: s.cfg.PasswordVar,
				Reason:   fmt.Sprintf("must be set when %s=1", s.cfg.NonInteractiveVar),
			}
		}
		return []byte(v), nil
	}

	if s.prompter == nil {
		return nil, &models.CredentialError{
			Variable: s.cfg.NonInteractiveVar,
			Reason:   "no terminal available for the password prompt",
		}
	}

	password, err := s.prompter.ReadPassword("Enter password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	return password, nil
}

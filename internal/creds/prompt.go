package creds

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalPrompter reads from a terminal file descriptor with echo off.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter prompts on stderr and reads from stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

// IsTerminal reports whether input is attached to a terminal.
func (p *TerminalPrompter) IsTerminal() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

// ReadPassword implements Prompter.
func (p *TerminalPrompter) ReadPassword(prompt string) ([]byte, error) {
	if !p.IsTerminal() {
		return nil, fmt.Errorf("stdin is not a terminal")
	}

	fmt.Fprint(p.out, prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out) // New line after password

	if err != nil {
		return nil, err
	}

	return password, nil
}

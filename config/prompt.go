package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kbukum/archivekit/util"
)

// EnvPassword is the variable consulted when Password is not configured.
const EnvPassword = "ARCHIVE_PASSWORD"

// ResolvePassword returns the password proving the configured principal:
// the configured value, the ARCHIVE_PASSWORD variable, or an interactive
// terminal prompt, in that order.
func (c *Config) ResolvePassword() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	if pwd := os.Getenv(EnvPassword); pwd != "" {
		return util.SanitizeEnvValue(pwd), nil
	}
	return PromptPassword("Password: ")
}

// PromptPassword reads a password from the terminal without echo. It
// fails when stdin is not a terminal.
func PromptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("config: password required and stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("config: reading password: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

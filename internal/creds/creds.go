// Package creds stores GitHub tokens in the OS keychain. The auth flow never
// touches it; the CLI persists a credential only after a fully validated
// login, and falls back to the config file when no keychain is available
// (headless machines, CI).
package creds

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "repogen"

// ErrNotFound is returned by Load when no credential is stored for the login.
var ErrNotFound = errors.New("no stored credential")

// Save stores the token for the given GitHub login.
func Save(login, token string) error {
	if login == "" {
		return errors.New("cannot store a credential without a login")
	}
	if err := keyring.Set(service, login, token); err != nil {
		return fmt.Errorf("storing credential in keychain: %w", err)
	}
	return nil
}

// Load returns the stored token for the given GitHub login.
func Load(login string) (string, error) {
	token, err := keyring.Get(service, login)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading credential from keychain: %w", err)
	}
	return token, nil
}

// Delete removes the stored token for the given GitHub login. A missing
// credential is not an error.
func Delete(login string) error {
	err := keyring.Delete(service, login)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting credential from keychain: %w", err)
	}
	return nil
}

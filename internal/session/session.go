// Package session stores the authenticated identity for the page
// lifetime of the client and persists it between runs.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Identity is who the client is talking as: the user handle (the
// account email) plus the bearer token the backend issued at login.
type Identity struct {
	Handle string `json:"handle"`
	Token  string `json:"token"`
}

// Valid reports whether the identity is complete enough to use.
// An incomplete identity sends the user back to the login view.
func (id *Identity) Valid() bool {
	return id != nil && id.Handle != "" && id.Token != ""
}

// Store persists an Identity at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the identity to disk, creating parent directories.
// The file is user-only since it holds a credential.
func (s *Store) Save(id Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Load returns the persisted identity, or nil when there is none or
// the file is unreadable. A corrupt session file is treated the same
// as a missing one.
func (s *Store) Load() *Identity {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil
	}
	if !id.Valid() {
		return nil
	}
	return &id
}

// Clear removes the persisted identity. Clearing an absent session is
// not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

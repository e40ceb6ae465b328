// internal/session/session.go
//
// The session store is the single source of truth for "is there an active
// credential". It is constructed once at startup and handed to the service
// client and the route guard; nothing reads ambient globals.

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// slotFile is the fixed-name slot that survives process restarts. It is the
// only state the client persists.
const slotFile = "credential.json"

// Credential is the opaque bearer token proving an authenticated session.
// The client never inspects the token contents.
type Credential struct {
	Token string `json:"access_token"`
	Kind  string `json:"token_type"`
}

// Bearer renders the Authorization header value for this credential.
func (c Credential) Bearer() string {
	return "Bearer " + c.Token
}

// Store holds at most one active credential and mirrors it to the slot file.
type Store struct {
	slotPath string
	cred     Credential
	active   bool
}

// New creates a store backed by the slot file under stateDir, loading any
// credential persisted by a previous run.
func New(stateDir string) (*Store, error) {
	s := &Store{slotPath: filepath.Join(stateDir, slotFile)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set replaces any prior credential with cred and persists it. Subsequent
// service calls attach the new token.
func (s *Store) Set(cred Credential) {
	s.cred = cred
	s.active = strings.TrimSpace(cred.Token) != ""
	s.persist()
}

// Clear removes the credential and erases the slot file. Subsequent service
// calls go out without authorization.
func (s *Store) Clear() {
	s.cred = Credential{}
	s.active = false
	s.persist()
}

// Active reports whether a credential is currently held.
func (s *Store) Active() bool {
	return s.active
}

// Credential returns the held credential. The zero value means
// unauthenticated; check Active first.
func (s *Store) Credential() Credential {
	return s.cred
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.slotPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("session: read slot %s: %w", s.slotPath, err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// A corrupt slot is treated as signed out rather than a fatal
		// startup error; the user just signs in again.
		return nil
	}
	if strings.TrimSpace(cred.Token) != "" {
		s.cred = cred
		s.active = true
	}
	return nil
}

// persist mirrors the in-memory state to the slot file: an active credential
// is written out, an inactive store erases whatever an earlier Set left
// behind so nothing resurrects at the next startup.
func (s *Store) persist() {
	if !s.active {
		// The in-memory credential is gone either way; ignore remove
		// failures.
		_ = os.Remove(s.slotPath)
		return
	}
	data, err := json.MarshalIndent(s.cred, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(s.slotPath, data, 0o600)
}

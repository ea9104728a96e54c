package dashboard

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// GateResult is SessionGate's decision.
type GateResult int

const (
	// Allowed means a token is present and the session may proceed to load.
	Allowed GateResult = iota
	// Redirect means the caller must return to the unauthenticated entry.
	Redirect
)

// Session is the explicit session context passed to every operation.
// Created at login, destroyed at logout or on an auth rejection.
type Session struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	SavedAt  time.Time `json:"savedAt"`
}

// SessionStore persists the session under a fixed file path.
type SessionStore struct {
	path string
}

// NewSessionStore constructs a store rooted at path.
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		return nil, errors.New("dashboard: empty session path")
	}
	return &SessionStore{path: path}, nil
}

// Load reads the persisted session. A missing file yields an empty session.
func (s *SessionStore) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Save writes the session, creating parent directories as needed.
func (s *SessionStore) Save(session Session) error {
	session.SavedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the persisted session. Missing file is not an error.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SessionGate decides whether private data may load at all.
type SessionGate struct {
	store *SessionStore
}

// NewSessionGate constructs a SessionGate.
func NewSessionGate(store *SessionStore) (*SessionGate, error) {
	if store == nil {
		return nil, errors.New("dashboard: nil session store")
	}
	return &SessionGate{store: store}, nil
}

// CheckSession returns Redirect without any network call when no token is
// held. A present token is only provisionally trusted: the initial reads
// decide whether it is still valid.
func (g *SessionGate) CheckSession() (Session, GateResult, error) {
	session, err := g.store.Load()
	if err != nil {
		return Session{}, Redirect, err
	}
	if session.Token == "" {
		return Session{}, Redirect, nil
	}
	return session, Allowed, nil
}

// Invalidate tears the session down after a server-reported rejection.
func (g *SessionGate) Invalidate() error {
	return g.store.Clear()
}

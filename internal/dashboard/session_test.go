package dashboard

import (
	"path/filepath"
	"testing"
)

func newGate(t *testing.T) (*SessionGate, *SessionStore) {
	t.Helper()
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	gate, err := NewSessionGate(store)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return gate, store
}

func TestCheckSessionWithoutTokenRedirects(t *testing.T) {
	gate, _ := newGate(t)
	_, result, err := gate.CheckSession()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result != Redirect {
		t.Fatalf("expected Redirect, got %v", result)
	}
}

func TestCheckSessionWithTokenAllows(t *testing.T) {
	gate, store := newGate(t)
	if err := store.Save(Session{Token: "abc", Username: "alice"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	session, result, err := gate.CheckSession()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result != Allowed {
		t.Fatalf("expected Allowed, got %v", result)
	}
	if session.Token != "abc" || session.Username != "alice" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestInvalidateClearsSession(t *testing.T) {
	gate, store := newGate(t)
	if err := store.Save(Session{Token: "abc"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := gate.Invalidate(); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, result, err := gate.CheckSession()
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result != Redirect {
		t.Fatalf("expected Redirect after invalidate, got %v", result)
	}
}

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func mustEditor(t *testing.T, baseURL string, reporter *ErrorReporter, profile Profile) *ProfileEditor {
	t.Helper()
	editor, err := NewProfileEditor(mustClient(t, baseURL), reporter, profile)
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}
	return editor
}

func TestEditIsolation(t *testing.T) {
	editor := mustEditor(t, "http://localhost", nil, Profile{ID: "user-1", Email: "old@example.com"})

	if err := editor.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.SetField("email", "new@example.com"); err != nil {
		t.Fatalf("set field: %v", err)
	}

	if got := editor.Profile().Email; got != "old@example.com" {
		t.Fatalf("committed profile changed during edit: %q", got)
	}
	if got := editor.Buffer().Email; got != "new@example.com" {
		t.Fatalf("buffer not updated: %q", got)
	}
}

func TestCancelDiscardsBuffer(t *testing.T) {
	editor := mustEditor(t, "http://localhost", nil, Profile{ID: "user-1", Email: "old@example.com"})

	if err := editor.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.SetField("email", "new@example.com"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	editor.Cancel()

	if editor.State() != Viewing {
		t.Fatal("expected Viewing after cancel")
	}
	if got := editor.Profile().Email; got != "old@example.com" {
		t.Fatalf("expected unchanged email, got %q", got)
	}
}

func TestSaveCommitsServerProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/users/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req Profile
		_ = json.NewDecoder(r.Body).Decode(&req)
		req.City = "Normalized City"
		_ = json.NewEncoder(w).Encode(req)
	}))
	defer server.Close()

	editor := mustEditor(t, server.URL, NewErrorReporter(nil), Profile{ID: "user-1", Email: "old@example.com"})

	if err := editor.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.SetField("email", "new@example.com"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if err := editor.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if editor.State() != Viewing {
		t.Fatal("expected Viewing after save")
	}
	committed := editor.Profile()
	if committed.Email != "new@example.com" {
		t.Fatalf("expected committed email, got %q", committed.Email)
	}
	if committed.City != "Normalized City" {
		t.Fatalf("expected server's returned profile, got %+v", committed)
	}
}

func TestSaveFailureRetainsBuffer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "email already registered", http.StatusConflict)
	}))
	defer server.Close()

	reporter := NewErrorReporter(nil)
	editor := mustEditor(t, server.URL, reporter, Profile{ID: "user-1", Email: "old@example.com"})

	if err := editor.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.SetField("email", "taken@example.com"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if err := editor.Save(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if editor.State() != Editing {
		t.Fatal("expected Editing after failed save")
	}
	if got := editor.Buffer().Email; got != "taken@example.com" {
		t.Fatalf("expected retained buffer, got %q", got)
	}
	if got := editor.Profile().Email; got != "old@example.com" {
		t.Fatalf("expected unchanged committed profile, got %q", got)
	}
	if reporter.Current() == "" {
		t.Fatal("expected reported message")
	}
}

func TestSaveAuthRejectionSkipsMessageSlot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	reporter := NewErrorReporter(nil)
	editor := mustEditor(t, server.URL, reporter, Profile{ID: "user-1", Email: "old@example.com"})

	if err := editor.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.Save(context.Background()); !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("expected ErrAuthRejected, got %v", err)
	}
	if msg := reporter.Current(); msg != "" {
		t.Fatalf("expected empty slot after auth rejection, got %q", msg)
	}
}

func TestSetFieldOutsideEditingFails(t *testing.T) {
	editor := mustEditor(t, "http://localhost", nil, Profile{ID: "user-1"})
	if err := editor.SetField("email", "x@example.com"); err == nil {
		t.Fatal("expected error outside Editing")
	}
}

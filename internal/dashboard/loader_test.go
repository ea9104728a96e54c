package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newAPIServer(t *testing.T, me, devices, available http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", me)
	mux.HandleFunc("/users/me/devices", devices)
	mux.HandleFunc("/devices/available", available)
	return httptest.NewServer(mux)
}

func okIdentity(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(Identity{ID: "user-1", Username: "alice", Role: "USER"})
}

func okBundle(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(UserDevices{
		User:    Profile{ID: "user-1", Email: "alice@example.com"},
		Devices: []Device{{ID: "d1", Name: "AC", MaximumConsumption: 2.5, PowerConsumption: 1.2, OwnerID: owner("user-1")}},
	})
}

func okAvailable(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode([]Device{{ID: "d2", Name: "Heater", MaximumConsumption: 3, PowerConsumption: 1.5}})
}

func mustLoader(t *testing.T, baseURL string) *ResourceLoader {
	t.Helper()
	loader, err := NewResourceLoader(mustClient(t, baseURL), nil)
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	return loader
}

func TestLoadInitialState(t *testing.T) {
	server := newAPIServer(t, okIdentity, okBundle, okAvailable)
	defer server.Close()

	state, err := mustLoader(t, server.URL).LoadInitialState(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Identity.Username != "alice" || state.Identity.Role != "USER" {
		t.Fatalf("unexpected identity %+v", state.Identity)
	}
	if state.Profile.ID != "user-1" {
		t.Fatalf("unexpected profile %+v", state.Profile)
	}
	if len(state.Owned) != 1 || state.Owned[0].ID != "d1" {
		t.Fatalf("unexpected owned %+v", state.Owned)
	}
	if len(state.Available) != 1 || state.Available[0].ID != "d2" {
		t.Fatalf("unexpected available %+v", state.Available)
	}
}

func TestLoadAuthRejectionWinsOverSuccess(t *testing.T) {
	forbidden := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}
	server := newAPIServer(t, forbidden, okBundle, okAvailable)
	defer server.Close()

	_, err := mustLoader(t, server.URL).LoadInitialState(context.Background())
	if !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("expected ErrAuthRejected, got %v", err)
	}
}

func TestLoadAuthRejectionWinsOverOtherFailure(t *testing.T) {
	forbidden := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	broken := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
	server := newAPIServer(t, broken, forbidden, okAvailable)
	defer server.Close()

	_, err := mustLoader(t, server.URL).LoadInitialState(context.Background())
	if !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("expected ErrAuthRejected, got %v", err)
	}
}

func TestLoadIsAtomicOnPartialFailure(t *testing.T) {
	broken := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
	server := newAPIServer(t, okIdentity, okBundle, broken)
	defer server.Close()

	state, err := mustLoader(t, server.URL).LoadInitialState(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrAuthRejected) {
		t.Fatalf("expected non-auth failure, got %v", err)
	}
	if state != nil {
		t.Fatalf("expected no partial state, got %+v", state)
	}
}

func TestLoadDefaultsMissingLists(t *testing.T) {
	emptyBundle := func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(UserDevices{User: Profile{ID: "user-1"}})
	}
	emptyAvailable := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	}
	server := newAPIServer(t, okIdentity, emptyBundle, emptyAvailable)
	defer server.Close()

	state, err := mustLoader(t, server.URL).LoadInitialState(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Owned == nil || len(state.Owned) != 0 {
		t.Fatalf("expected empty owned slice, got %+v", state.Owned)
	}
	if state.Available == nil || len(state.Available) != 0 {
		t.Fatalf("expected empty available slice, got %+v", state.Available)
	}
}

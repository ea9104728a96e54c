package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"energy-cloud/internal/auth"
	credentials "energy-cloud/internal/credentials/domain"
	"energy-cloud/internal/credentials/infrastructure/memory"
	usersapp "energy-cloud/internal/users/application"
	usersmemory "energy-cloud/internal/users/infrastructure/memory"
)

func newTestService(t *testing.T) (*Service, *usersapp.Service) {
	t.Helper()
	profiles, err := usersapp.NewService(usersmemory.NewProfileRepository())
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	service, err := NewService(memory.NewCredentialRepository(), profiles, []byte("test-secret"), time.Hour, nil)
	if err != nil {
		t.Fatalf("credential service: %v", err)
	}
	return service, profiles
}

func TestRegisterIssuesToken(t *testing.T) {
	service, _ := newTestService(t)

	resp, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret123", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token")
	}
	if resp.Role != "USER" {
		t.Fatalf("expected default USER role, got %q", resp.Role)
	}

	claims, err := auth.ParseJWT(resp.Token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != resp.CredentialID {
		t.Fatalf("expected subject %s, got %s", resp.CredentialID, claims.UserID)
	}
}

func TestRegisterAutoCreatesProfile(t *testing.T) {
	service, profiles := newTestService(t)

	resp, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret123", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	profile, err := profiles.Get(context.Background(), resp.CredentialID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != "alice@example.com" {
		t.Fatalf("expected profile email, got %q", profile.Email)
	}
	if profile.FirstName != "alice" || profile.LastName != "alice" {
		t.Fatalf("expected username placeholders, got %q %q", profile.FirstName, profile.LastName)
	}
}

func TestRegisterWithoutEmailSkipsProfile(t *testing.T) {
	service, profiles := newTestService(t)

	resp, err := service.Register(context.Background(), RegisterRequest{Username: "bob", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := profiles.Get(context.Background(), resp.CredentialID); err == nil {
		t.Fatal("expected no auto-created profile without email")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	service, _ := newTestService(t)

	var validation ErrValidation
	_, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "short"})
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret456"}); !errors.Is(err, credentials.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.Register(context.Background(), RegisterRequest{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := service.Login(context.Background(), LoginRequest{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := service.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong-pass"}); !errors.Is(err, credentials.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(context.Background(), LoginRequest{Username: "nobody", Password: "secret123"}); !errors.Is(err, credentials.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterNormalizesLegacyRole(t *testing.T) {
	service, _ := newTestService(t)

	resp, err := service.Register(context.Background(), RegisterRequest{Username: "carol", Password: "secret123", Role: "ROLE_ADMIN"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Role != "ADMIN" {
		t.Fatalf("expected normalized ADMIN role, got %q", resp.Role)
	}
}

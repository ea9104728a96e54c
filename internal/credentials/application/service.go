package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"energy-cloud/internal/auth"
	credentials "energy-cloud/internal/credentials/domain"
	"energy-cloud/internal/observability/metrics"
	usersapp "energy-cloud/internal/users/application"
	users "energy-cloud/internal/users/domain"
)

// Repository manages credential persistence.
type Repository interface {
	Get(ctx context.Context, id string) (*credentials.Credential, error)
	FindByUsername(ctx context.Context, username string) (*credentials.Credential, error)
	FindByEmail(ctx context.Context, email string) (*credentials.Credential, error)
	Save(ctx context.Context, credential *credentials.Credential) error
}

// ProfileCreator provisions the user profile that accompanies a new credential.
type ProfileCreator interface {
	Create(ctx context.Context, req usersapp.ProfileRequest) (*users.UserProfile, error)
}

// RegisterRequest carries the registration payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginRequest carries the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	CredentialID string    `json:"credentialId"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ErrValidation wraps an input validation failure.
type ErrValidation struct {
	Reason string
}

func (e ErrValidation) Error() string {
	return e.Reason
}

// Service handles registration, login and identity lookup.
type Service struct {
	repo     Repository
	profiles ProfileCreator
	secret   []byte
	tokenTTL time.Duration
	logger   *log.Logger
}

// NewService constructs an auth service.
func NewService(repo Repository, profiles ProfileCreator, secret []byte, tokenTTL time.Duration, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("credentials: nil repo")
	}
	if len(secret) == 0 {
		return nil, errors.New("credentials: empty secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{repo: repo, profiles: profiles, secret: secret, tokenTTL: tokenTTL, logger: logger}, nil
}

// Register creates a credential, provisions the matching user profile
// best-effort, and returns a signed token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrValidation{Reason: "username is required"}
	}
	if len(req.Password) < 8 {
		return nil, ErrValidation{Reason: "password should have at least 8 characters"}
	}
	role := auth.RoleUser
	if req.Role != "" {
		normalized, ok := auth.NormalizeRole(req.Role)
		if !ok {
			return nil, ErrValidation{Reason: "invalid role"}
		}
		role = normalized
	}

	if existing, err := s.repo.FindByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, credentials.ErrDuplicate
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if existing, err := s.repo.FindByEmail(ctx, email); err != nil {
			return nil, err
		} else if existing != nil {
			metrics.RecordAuthAttempt("register", false)
			return nil, credentials.ErrDuplicate
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("credentials: hash password: %w", err)
	}
	credential := credentials.Credential{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.Save(ctx, &credential); err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, fmt.Errorf("credentials: register: %w", err)
	}

	// Best-effort automatic creation of the corresponding user profile.
	if s.profiles != nil && email != "" {
		_, err := s.profiles.Create(ctx, usersapp.ProfileRequest{
			ID:        credential.ID,
			FirstName: username,
			LastName:  username,
			Email:     email,
		})
		if err != nil && s.logger != nil {
			s.logger.Printf("failed to auto-create user profile for credential %s: %v", credential.ID, err)
		}
	}

	metrics.RecordAuthAttempt("register", true)
	return s.buildAuthResponse(credential)
}

// Login verifies the password and returns a signed token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	credential, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if credential == nil {
		metrics.RecordAuthAttempt("login", false)
		return nil, credentials.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(req.Password)); err != nil {
		metrics.RecordAuthAttempt("login", false)
		return nil, credentials.ErrInvalidCredentials
	}
	metrics.RecordAuthAttempt("login", true)
	return s.buildAuthResponse(*credential)
}

// ByUsername loads a credential for the /auth/me lookup.
func (s *Service) ByUsername(ctx context.Context, username string) (*credentials.Credential, error) {
	credential, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, credentials.ErrNotFound
	}
	return credential, nil
}

func (s *Service) buildAuthResponse(credential credentials.Credential) (*AuthResponse, error) {
	token, expiresAt, err := auth.IssueJWT(s.secret, credential.ID, credential.Username, credential.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("credentials: issue token: %w", err)
	}
	return &AuthResponse{
		CredentialID: credential.ID,
		Username:     credential.Username,
		Role:         string(credential.Role),
		Token:        token,
		ExpiresAt:    expiresAt,
	}, nil
}

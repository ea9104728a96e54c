package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"energy-cloud/internal/observability/metrics"
	users "energy-cloud/internal/users/domain"
)

// Repository manages profile persistence.
type Repository interface {
	Get(ctx context.Context, id string) (*users.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*users.UserProfile, error)
	ListAll(ctx context.Context) ([]users.UserProfile, error)
	Save(ctx context.Context, profile *users.UserProfile) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ProfileRequest carries the full replacement payload for a profile.
type ProfileRequest struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// ErrValidation wraps an input validation failure.
type ErrValidation struct {
	Reason string
}

func (e ErrValidation) Error() string {
	return e.Reason
}

// Service handles user profile lifecycle.
type Service struct {
	repo Repository
}

// NewService constructs a profile service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("users: nil repo")
	}
	return &Service{repo: repo}, nil
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]users.UserProfile, error) {
	return s.repo.ListAll(ctx)
}

// Get loads one profile.
func (s *Service) Get(ctx context.Context, id string) (*users.UserProfile, error) {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, users.ErrNotFound
	}
	return profile, nil
}

// Create registers a new profile. Called with a minimal payload when a
// credential is registered; the remaining fields stay empty until the
// user edits the profile.
func (s *Service) Create(ctx context.Context, req ProfileRequest) (*users.UserProfile, error) {
	if req.ID == "" {
		return nil, ErrValidation{Reason: "user id is required"}
	}
	existing, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, users.ErrDuplicate
	}
	if err := s.ensureEmailFree(ctx, req.Email, req.ID); err != nil {
		return nil, err
	}
	profile := users.UserProfile{
		ID:          req.ID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
	}
	if err := profile.Validate(); err != nil {
		return nil, ErrValidation{Reason: err.Error()}
	}
	if err := s.repo.Save(ctx, &profile); err != nil {
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return &profile, nil
}

// Update replaces the mutable fields of a profile. The request carries the
// full field set, not a partial patch.
func (s *Service) Update(ctx context.Context, id string, req ProfileRequest) (*users.UserProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.Email != req.Email {
		if err := s.ensureEmailFree(ctx, req.Email, id); err != nil {
			metrics.RecordProfileUpdate(false)
			return nil, err
		}
	}
	profile.FirstName = strings.TrimSpace(req.FirstName)
	profile.LastName = strings.TrimSpace(req.LastName)
	profile.Email = strings.TrimSpace(req.Email)
	profile.PhoneNumber = req.PhoneNumber
	profile.Address = req.Address
	profile.City = req.City
	profile.Country = req.Country
	if err := profile.Validate(); err != nil {
		metrics.RecordProfileUpdate(false)
		return nil, ErrValidation{Reason: err.Error()}
	}
	if err := s.repo.Save(ctx, profile); err != nil {
		metrics.RecordProfileUpdate(false)
		return nil, fmt.Errorf("users: update: %w", err)
	}
	metrics.RecordProfileUpdate(true)
	return profile, nil
}

// Delete removes a profile.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if !deleted {
		return users.ErrNotFound
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	if email == "" {
		return nil
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return users.ErrDuplicate
	}
	return nil
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	users "energy-cloud/internal/users/domain"
)

// ProfileRepository is an in-memory repository for demo/testing.
type ProfileRepository struct {
	mu   sync.RWMutex
	data map[string]users.UserProfile
}

// NewProfileRepository constructs a repository.
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{data: make(map[string]users.UserProfile)}
}

// Get loads a profile by id.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*users.UserProfile, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("profile repo: empty id")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// FindByEmail loads a profile by email.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*users.UserProfile, error) {
	_ = ctx
	if email == "" {
		return nil, errors.New("profile repo: empty email")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, profile := range r.data {
		if profile.Email == email {
			found := profile
			return &found, nil
		}
	}
	return nil, nil
}

// ListAll loads every profile.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]users.UserProfile, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]users.UserProfile, 0, len(r.data))
	for _, profile := range r.data {
		result = append(result, profile)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save upserts a profile.
func (r *ProfileRepository) Save(ctx context.Context, profile *users.UserProfile) error {
	_ = ctx
	if profile == nil {
		return errors.New("profile repo: nil profile")
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *profile
	if existing, ok := r.data[profile.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.data[profile.ID] = stored
	*profile = stored
	return nil
}

// Delete removes a profile by id.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (bool, error) {
	_ = ctx
	if id == "" {
		return false, errors.New("profile repo: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

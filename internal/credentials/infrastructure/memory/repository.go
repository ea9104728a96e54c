package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	credentials "energy-cloud/internal/credentials/domain"
)

// CredentialRepository is an in-memory repository for demo/testing.
type CredentialRepository struct {
	mu   sync.RWMutex
	data map[string]credentials.Credential
}

// NewCredentialRepository constructs a repository.
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{data: make(map[string]credentials.Credential)}
}

// Get loads a credential by id.
func (r *CredentialRepository) Get(ctx context.Context, id string) (*credentials.Credential, error) {
	_ = ctx
	if id == "" {
		return nil, errors.New("credential repo: empty id")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	credential, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &credential, nil
}

// FindByUsername loads a credential by username.
func (r *CredentialRepository) FindByUsername(ctx context.Context, username string) (*credentials.Credential, error) {
	return r.find(ctx, func(c credentials.Credential) bool { return c.Username == username })
}

// FindByEmail loads a credential by email.
func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*credentials.Credential, error) {
	return r.find(ctx, func(c credentials.Credential) bool { return c.Email == email })
}

// Save upserts a credential.
func (r *CredentialRepository) Save(ctx context.Context, credential *credentials.Credential) error {
	_ = ctx
	if credential == nil {
		return errors.New("credential repo: nil credential")
	}
	if err := credential.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *credential
	if existing, ok := r.data[credential.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.data[credential.ID] = stored
	*credential = stored
	return nil
}

func (r *CredentialRepository) find(ctx context.Context, match func(credentials.Credential) bool) (*credentials.Credential, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, credential := range r.data {
		if match(credential) {
			found := credential
			return &found, nil
		}
	}
	return nil, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	credentials "energy-cloud/internal/credentials/domain"
)

const defaultCredentialsTable = "credentials"

// CredentialRepository is a Postgres implementation for credentials.
type CredentialRepository struct {
	db    *sql.DB
	table string
}

// NewCredentialRepository constructs a repository.
func NewCredentialRepository(db *sql.DB, opts ...CredentialOption) *CredentialRepository {
	repo := &CredentialRepository{db: db, table: defaultCredentialsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CredentialOption configures the repository.
type CredentialOption func(*CredentialRepository)

// WithCredentialTable overrides the table name.
func WithCredentialTable(table string) CredentialOption {
	return func(repo *CredentialRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a credential by id.
func (r *CredentialRepository) Get(ctx context.Context, id string) (*credentials.Credential, error) {
	if id == "" {
		return nil, errors.New("credential repo: empty id")
	}
	return r.one(ctx, "id", id)
}

// FindByUsername loads a credential by username.
func (r *CredentialRepository) FindByUsername(ctx context.Context, username string) (*credentials.Credential, error) {
	if username == "" {
		return nil, errors.New("credential repo: empty username")
	}
	return r.one(ctx, "username", username)
}

// FindByEmail loads a credential by email.
func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*credentials.Credential, error) {
	if email == "" {
		return nil, errors.New("credential repo: empty email")
	}
	return r.one(ctx, "email", email)
}

// Save upserts a credential.
func (r *CredentialRepository) Save(ctx context.Context, credential *credentials.Credential) error {
	if r == nil || r.db == nil {
		return errors.New("credential repo: nil db")
	}
	if credential == nil {
		return errors.New("credential repo: nil credential")
	}
	if err := credential.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	username,
	email,
	password_hash,
	role
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (id)
DO UPDATE SET
	username = EXCLUDED.username,
	email = EXCLUDED.email,
	password_hash = EXCLUDED.password_hash,
	role = EXCLUDED.role,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.Username,
		credential.Email,
		credential.PasswordHash,
		string(credential.Role),
	)
	return err
}

func (r *CredentialRepository) one(ctx context.Context, column, value string) (*credentials.Credential, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("credential repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, username, email, password_hash, role, created_at, updated_at
FROM %s
WHERE %s = $1
LIMIT 1`, r.table, column)

	var credential credentials.Credential
	var role string
	if err := r.db.QueryRowContext(ctx, query, value).Scan(
		&credential.ID,
		&credential.Username,
		&credential.Email,
		&credential.PasswordHash,
		&role,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	credential.Role = credentials.RoleFromStored(role)
	credential.CreatedAt = credential.CreatedAt.UTC()
	credential.UpdatedAt = credential.UpdatedAt.UTC()
	return &credential, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	users "energy-cloud/internal/users/domain"
)

const defaultProfilesTable = "user_profiles"

// ProfileRepository is a Postgres implementation for user profiles.
type ProfileRepository struct {
	db    *sql.DB
	table string
}

// NewProfileRepository constructs a repository.
func NewProfileRepository(db *sql.DB, opts ...ProfileOption) *ProfileRepository {
	repo := &ProfileRepository{db: db, table: defaultProfilesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ProfileOption configures the repository.
type ProfileOption func(*ProfileRepository)

// WithProfileTable overrides the table name.
func WithProfileTable(table string) ProfileOption {
	return func(repo *ProfileRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a profile by id.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*users.UserProfile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	if id == "" {
		return nil, errors.New("profile repo: empty id")
	}
	query := fmt.Sprintf(`
SELECT id, first_name, last_name, email, phone_number, address, city, country, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	return r.one(ctx, query, id)
}

// FindByEmail loads a profile by email.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*users.UserProfile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	if email == "" {
		return nil, errors.New("profile repo: empty email")
	}
	query := fmt.Sprintf(`
SELECT id, first_name, last_name, email, phone_number, address, city, country, created_at, updated_at
FROM %s
WHERE email = $1
LIMIT 1`, r.table)
	return r.one(ctx, query, email)
}

// ListAll loads every profile.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]users.UserProfile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, first_name, last_name, email, phone_number, address, city, country, created_at, updated_at
FROM %s
ORDER BY created_at ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []users.UserProfile
	for rows.Next() {
		var profile users.UserProfile
		if err := scanProfile(rows, &profile); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save upserts a profile.
func (r *ProfileRepository) Save(ctx context.Context, profile *users.UserProfile) error {
	if r == nil || r.db == nil {
		return errors.New("profile repo: nil db")
	}
	if profile == nil {
		return errors.New("profile repo: nil profile")
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	first_name,
	last_name,
	email,
	phone_number,
	address,
	city,
	country
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (id)
DO UPDATE SET
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	email = EXCLUDED.email,
	phone_number = EXCLUDED.phone_number,
	address = EXCLUDED.address,
	city = EXCLUDED.city,
	country = EXCLUDED.country,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.ID,
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.PhoneNumber,
		profile.Address,
		profile.City,
		profile.Country,
	)
	return err
}

// Delete removes a profile by id. The bool reports whether a row existed.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("profile repo: nil db")
	}
	if id == "" {
		return false, errors.New("profile repo: empty id")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ProfileRepository) one(ctx context.Context, query string, arg any) (*users.UserProfile, error) {
	var profile users.UserProfile
	if err := scanProfile(r.db.QueryRowContext(ctx, query, arg), &profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, profile *users.UserProfile) error {
	if err := row.Scan(
		&profile.ID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Email,
		&profile.PhoneNumber,
		&profile.Address,
		&profile.City,
		&profile.Country,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return err
	}
	profile.CreatedAt = profile.CreatedAt.UTC()
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return nil
}

package credentials

import (
	"errors"
	"time"

	"energy-cloud/internal/auth"
)

// Credential represents a login identity. The id doubles as the user
// profile id in the users context.
type Credential struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrNotFound indicates a credential does not exist.
var ErrNotFound = errors.New("credential not found")

// ErrDuplicate indicates the username or email is already taken.
var ErrDuplicate = errors.New("credential already exists")

// ErrInvalidCredentials indicates a bad username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RoleFromStored normalizes a persisted role string, falling back to USER
// for values written before role normalization existed.
func RoleFromStored(value string) auth.Role {
	if role, ok := auth.NormalizeRole(value); ok {
		return role
	}
	return auth.RoleUser
}

// Validate checks credential invariants.
func (c Credential) Validate() error {
	if c.ID == "" {
		return errors.New("credential: empty id")
	}
	if c.Username == "" {
		return errors.New("credential: empty username")
	}
	if c.PasswordHash == "" {
		return errors.New("credential: empty password hash")
	}
	if _, ok := auth.NormalizeRole(string(c.Role)); !ok {
		return errors.New("credential: invalid role")
	}
	return nil
}

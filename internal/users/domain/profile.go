package users

import (
	"errors"
	"time"
)

// UserProfile represents account details owned by the user service. The id
// is shared with the credential that was registered for the account.
type UserProfile struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Address     string
	City        string
	Country     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ErrNotFound indicates a profile does not exist.
var ErrNotFound = errors.New("user profile not found")

// ErrDuplicate indicates the profile id or email is already taken.
var ErrDuplicate = errors.New("user profile already exists")

// Validate checks profile invariants. Name and contact fields start empty
// right after registration and are filled in by the user later.
func (p UserProfile) Validate() error {
	if p.ID == "" {
		return errors.New("profile: empty id")
	}
	if p.Email == "" {
		return errors.New("profile: empty email")
	}
	return nil
}

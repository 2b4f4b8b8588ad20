package accounts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateAccount is returned when an account with the email already exists.
	ErrDuplicateAccount = errors.New("accounts: an account with this email already exists")

	// ErrWeakCredential is returned when the password is shorter than MinPasswordLength.
	ErrWeakCredential = errors.New("accounts: password must be at least 8 characters")

	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("accounts: account not found")

	// ErrInvalidEmail is returned when the email has no usable local part.
	ErrInvalidEmail = errors.New("accounts: invalid email")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Account is a patient login.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Age          int       `json:"age,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
